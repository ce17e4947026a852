package models

type Series struct {
	ID          int    `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`

	Articles []SeriesArticle
}

type SeriesArticle struct {
	ArticleID string `db:"article_id"`
	Ord       int    `db:"ord"`
	Title     string `db:"title"`
}
