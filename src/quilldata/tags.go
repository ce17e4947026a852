package quilldata

import (
	"context"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
)

type TagAndCount struct {
	Name     string `db:"name"`
	Articles int64  `db:"articles"`
}

// Tags come into existence the first time an article uses them and are
// never deleted, so concurrent submits race harmlessly here.
func EnsureTags(ctx context.Context, tx db.ConnOrTx, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`
		INSERT INTO tag (name)
		SELECT unnest($1::text[])
		ON CONFLICT DO NOTHING
		`,
		tags,
	)
	if err != nil {
		return oops.New(err, "failed to create tags")
	}
	return nil
}

func FetchTags(ctx context.Context, dbConn db.ConnOrTx) ([]*TagAndCount, error) {
	tags, err := db.Query[TagAndCount](ctx, dbConn, `
		SELECT tag.name AS name, COUNT(article_tag.article_id) AS articles
		FROM
			tag
			LEFT JOIN article_tag ON article_tag.tag_name = tag.name
		GROUP BY tag.name
		ORDER BY tag.name
	`)
	if err != nil {
		return nil, oops.New(err, "failed to fetch tags")
	}
	return tags, nil
}

/*
Normalizes and de-duplicates free-form tag input. Anything that is not a
valid tag once normalized is returned in invalid, untouched, so it can be
reported back to the user.
*/
func CleanTags(input []string) (tags []string, invalid []string) {
	seen := map[string]bool{}
	tags = []string{}
	for _, raw := range input {
		name := models.NormalizeTag(raw)
		if name == "" {
			continue
		}
		if !models.ValidateTagText(name) {
			invalid = append(invalid, raw)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags, invalid
}
