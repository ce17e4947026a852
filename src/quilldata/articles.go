package quilldata

import (
	"context"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/utils"
)

const ArticleIDLength = 10

// What a create or edit form carries, already validated.
type ArticleSubmission struct {
	Title     string
	Body      string
	Tags      []string
	EditorIDs []int64
	Discord   bool
}

type ArticleAndStuff struct {
	Article models.Article
	Author  models.User
	Editors []*models.User
	Tags    []string
}

type ArticleQuery struct {
	IDs      []string
	Tag      string
	AuthorID int64

	Limit, Offset int
}

type articleAndAuthor struct {
	Article models.Article `db:"article"`
	Author  models.User    `db:"author"`
}

func FetchArticles(ctx context.Context, dbConn db.ConnOrTx, q ArticleQuery) ([]*ArticleAndStuff, error) {
	var qb db.QueryBuilder
	qb.Add(`
		SELECT $columns
		FROM
			article
			JOIN quill_user AS author ON author.id = article.author_id
		WHERE
			TRUE
	`)
	if len(q.IDs) > 0 {
		qb.Add(`AND article.id = ANY ($?)`, q.IDs)
	}
	if q.Tag != "" {
		qb.Add(`AND EXISTS (SELECT 1 FROM article_tag AS t WHERE t.article_id = article.id AND t.tag_name = $?)`, q.Tag)
	}
	if q.AuthorID != 0 {
		qb.Add(`AND article.author_id = $?`, q.AuthorID)
	}
	qb.Add(`ORDER BY article.created_at DESC, article.id`)
	if q.Limit > 0 {
		qb.Add(`LIMIT $? OFFSET $?`, q.Limit, q.Offset)
	}

	rows, err := db.Query[articleAndAuthor](ctx, dbConn, qb.String(), qb.Args()...)
	if err != nil {
		return nil, oops.New(err, "failed to fetch articles")
	}

	result := make([]*ArticleAndStuff, len(rows))
	ids := make([]string, len(rows))
	byID := make(map[string]*ArticleAndStuff, len(rows))
	for i, row := range rows {
		result[i] = &ArticleAndStuff{
			Article: row.Article,
			Author:  row.Author,
			Tags:    []string{},
			Editors: []*models.User{},
		}
		ids[i] = row.Article.ID
		byID[row.Article.ID] = result[i]
	}
	if len(rows) == 0 {
		return result, nil
	}

	type articleTag struct {
		ArticleID string `db:"article_id"`
		TagName   string `db:"tag_name"`
	}
	tags, err := db.Query[articleTag](ctx, dbConn, `
		SELECT $columns
		FROM article_tag
		WHERE article_id = ANY ($1)
		ORDER BY tag_name
	`, ids)
	if err != nil {
		return nil, oops.New(err, "failed to fetch article tags")
	}
	for _, tag := range tags {
		byID[tag.ArticleID].Tags = append(byID[tag.ArticleID].Tags, tag.TagName)
	}

	type articleEditor struct {
		ArticleID string      `db:"e.article_id"`
		User      models.User `db:"u"`
	}
	editors, err := db.Query[articleEditor](ctx, dbConn, `
		SELECT $columns
		FROM
			article_editor AS e
			JOIN quill_user AS u ON u.id = e.user_id
		WHERE e.article_id = ANY ($1)
		ORDER BY u.login
	`, ids)
	if err != nil {
		return nil, oops.New(err, "failed to fetch article editors")
	}
	for _, editor := range editors {
		user := editor.User
		byID[editor.ArticleID].Editors = append(byID[editor.ArticleID].Editors, &user)
	}

	return result, nil
}

func FetchArticle(ctx context.Context, dbConn db.ConnOrTx, id string) (*ArticleAndStuff, error) {
	articles, err := FetchArticles(ctx, dbConn, ArticleQuery{IDs: []string{id}})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, db.NotFound
	}
	return articles[0], nil
}

func CountArticles(ctx context.Context, dbConn db.ConnOrTx, q ArticleQuery) (int, error) {
	var qb db.QueryBuilder
	qb.Add(`SELECT COUNT(*) FROM article WHERE TRUE`)
	if q.Tag != "" {
		qb.Add(`AND EXISTS (SELECT 1 FROM article_tag AS t WHERE t.article_id = article.id AND t.tag_name = $?)`, q.Tag)
	}
	if q.AuthorID != 0 {
		qb.Add(`AND author_id = $?`, q.AuthorID)
	}
	count, err := db.QueryOneScalar[int64](ctx, dbConn, qb.String(), qb.Args()...)
	if err != nil {
		return 0, oops.New(err, "failed to count articles")
	}
	return int(count), nil
}

func FetchEditorIDs(ctx context.Context, dbConn db.ConnOrTx, articleID string) ([]int64, error) {
	ids, err := db.QueryScalar[int64](ctx, dbConn,
		`SELECT user_id FROM article_editor WHERE article_id = $1`,
		articleID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch article editors")
	}
	return ids, nil
}

// Editors without duplicates and without the author, who can always edit.
func EditorSet(authorID int64, editorIDs []int64) []int64 {
	result := []int64{}
	for _, id := range utils.Dedupe(editorIDs) {
		if id != authorID && id != 0 {
			result = append(result, id)
		}
	}
	return result
}

// Inserts the article along with its tags and editors. Run it in a transaction.
func CreateArticle(ctx context.Context, tx db.ConnOrTx, authorID int64, sub ArticleSubmission, now time.Time) (*models.Article, error) {
	article, err := db.QueryOne[models.Article](ctx, tx,
		`
		INSERT INTO article (id, title, body, author_id, created_at, updated_at, discord)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		RETURNING $columns
		`,
		utils.RandomID(ArticleIDLength),
		sub.Title,
		sub.Body,
		authorID,
		now,
		sub.Discord,
	)
	if err != nil {
		return nil, oops.New(err, "failed to insert article")
	}

	if err := setArticleEditors(ctx, tx, article.ID, EditorSet(authorID, sub.EditorIDs)); err != nil {
		return nil, err
	}
	if err := setArticleTags(ctx, tx, article.ID, sub.Tags); err != nil {
		return nil, err
	}
	return article, nil
}

/*
Overwrites the article's content, tags and editors. The author and the
announce flag stay as they were. There is no conflict detection; the last
write wins.
*/
func UpdateArticle(ctx context.Context, tx db.ConnOrTx, article *models.Article, sub ArticleSubmission, now time.Time) (*models.Article, error) {
	updated, err := db.QueryOne[models.Article](ctx, tx,
		`
		UPDATE article
		SET
			title = $2,
			body = $3,
			updated_at = $4
		WHERE id = $1
		RETURNING $columns
		`,
		article.ID,
		sub.Title,
		sub.Body,
		now,
	)
	if err != nil {
		return nil, oops.New(err, "failed to update article")
	}

	if err := setArticleEditors(ctx, tx, article.ID, EditorSet(article.AuthorID, sub.EditorIDs)); err != nil {
		return nil, err
	}
	if err := setArticleTags(ctx, tx, article.ID, sub.Tags); err != nil {
		return nil, err
	}
	return updated, nil
}

func setArticleEditors(ctx context.Context, tx db.ConnOrTx, articleID string, editorIDs []int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM article_editor WHERE article_id = $1`, articleID)
	if err != nil {
		return oops.New(err, "failed to clear article editors")
	}
	if len(editorIDs) == 0 {
		return nil
	}

	// Unknown user ids are dropped rather than failing the submission.
	_, err = tx.Exec(ctx,
		`
		INSERT INTO article_editor (article_id, user_id)
		SELECT $1, u.id
		FROM quill_user AS u
		WHERE u.id = ANY ($2)
		ON CONFLICT DO NOTHING
		`,
		articleID,
		editorIDs,
	)
	if err != nil {
		return oops.New(err, "failed to add article editors")
	}
	return nil
}

func setArticleTags(ctx context.Context, tx db.ConnOrTx, articleID string, tags []string) error {
	tags = utils.Dedupe(tags)
	if err := EnsureTags(ctx, tx, tags); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `DELETE FROM article_tag WHERE article_id = $1`, articleID)
	if err != nil {
		return oops.New(err, "failed to clear article tags")
	}
	if len(tags) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx,
		`
		INSERT INTO article_tag (article_id, tag_name)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING
		`,
		articleID,
		tags,
	)
	if err != nil {
		return oops.New(err, "failed to tag article")
	}
	return nil
}
