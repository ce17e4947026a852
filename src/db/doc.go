/*
Package db is a thin layer over pgx for mapping query results onto Go types
while still writing plain SQL.

Arguments use the usual $1, $2 placeholders and go straight to pgx. Use
Postgres arrays rather than IN for lists:

	ids, err := db.QueryScalar[string](ctx, conn,
		`SELECT article_id FROM article_tag WHERE tag_name = ANY($1)`,
		[]string{"go", "postgres"},
	)

To read several columns, query into a struct with `db` tags and let
$columns expand to the column list:

	type Tag struct {
		Name string `db:"name"`
	}
	tags, err := db.Query[Tag](ctx, conn, `SELECT $columns FROM tag`)

$columns{prefix} qualifies each column, which helps with joins:

	users, err := db.Query[models.User](ctx, conn, `
		SELECT $columns{u}
		FROM quill_user AS u JOIN article_editor AS e ON e.user_id = u.id
		WHERE e.article_id = $1
	`, articleID)

For queries assembled conditionally, see QueryBuilder.
*/
package db
