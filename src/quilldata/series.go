package quilldata

import (
	"context"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
)

// The series with its articles in reading order.
func FetchSeries(ctx context.Context, dbConn db.ConnOrTx, seriesID int) (*models.Series, error) {
	series, err := db.QueryOne[models.Series](ctx, dbConn,
		`SELECT $columns FROM series WHERE id = $1`,
		seriesID,
	)
	if err != nil {
		if err == db.NotFound {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch series")
	}

	articles, err := db.Query[models.SeriesArticle](ctx, dbConn,
		`
		SELECT $columns
		FROM series_article
		WHERE series_id = $1
		ORDER BY ord, article_id
		`,
		seriesID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch series articles")
	}

	series.Articles = make([]models.SeriesArticle, 0, len(articles))
	for _, a := range articles {
		series.Articles = append(series.Articles, *a)
	}
	return series, nil
}

func CreateSeries(ctx context.Context, tx db.ConnOrTx, title, description string, articles []models.SeriesArticle) (int, error) {
	id, err := db.QueryOneScalar[int32](ctx, tx,
		`INSERT INTO series (title, description) VALUES ($1, $2) RETURNING id`,
		title,
		description,
	)
	if err != nil {
		return 0, oops.New(err, "failed to create series")
	}
	for _, a := range articles {
		_, err := tx.Exec(ctx,
			`INSERT INTO series_article (series_id, article_id, ord, title) VALUES ($1, $2, $3, $4)`,
			id,
			a.ArticleID,
			a.Ord,
			a.Title,
		)
		if err != nil {
			return 0, oops.New(err, "failed to add article %s to series", a.ArticleID)
		}
	}
	return int(id), nil
}
