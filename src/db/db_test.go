package db

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	ID    int64   `db:"id"`
	Login string  `db:"login"`
	Bio   *string `db:"bio"`

	NotAColumn string
}

type testArticle struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Discord   bool      `db:"discord"`
	Tags      []string  `db:"tags"`
}

type testArticleAndAuthor struct {
	Article testArticle `db:"article"`
	Author  *testUser   `db:"author"`
}

func TestCompileQuery(t *testing.T) {
	t.Run("no placeholder", func(t *testing.T) {
		compiled := compileQuery(`SELECT id FROM article`, reflect.TypeOf(""))
		assert.Equal(t, `SELECT id FROM article`, compiled.query)
		assert.Nil(t, compiled.fieldPaths)
	})
	t.Run("flat struct", func(t *testing.T) {
		compiled := compileQuery(`SELECT $columns FROM quill_user`, reflect.TypeOf(testUser{}))
		assert.Equal(t, `SELECT id, login, bio FROM quill_user`, compiled.query)
		assert.Equal(t, []fieldPath{{0}, {1}, {2}}, compiled.fieldPaths)
	})
	t.Run("prefixed", func(t *testing.T) {
		compiled := compileQuery(`SELECT $columns{u} FROM quill_user AS u`, reflect.TypeOf(testUser{}))
		assert.Equal(t, `SELECT u.id, u.login, u.bio FROM quill_user AS u`, compiled.query)
	})
	t.Run("nested structs", func(t *testing.T) {
		compiled := compileQuery(`SELECT $columns FROM article JOIN quill_user AS author`, reflect.TypeOf(testArticleAndAuthor{}))
		assert.Equal(t,
			`SELECT article.id, article.created_at, article.discord, article.tags, author.id, author.login, author.bio FROM article JOIN quill_user AS author`,
			compiled.query,
		)
		assert.Equal(t, []fieldPath{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {1, 0}, {1, 1}, {1, 2}}, compiled.fieldPaths)
	})
	t.Run("columns need a struct", func(t *testing.T) {
		assert.Panics(t, func() {
			compileQuery(`SELECT $columns FROM tag`, reflect.TypeOf(""))
		})
	})
}

func TestFollowPath(t *testing.T) {
	var dest testArticleAndAuthor
	compiled := compileQuery(`SELECT $columns`, reflect.TypeOf(dest))

	for _, path := range compiled.fieldPaths {
		field := followPath(reflect.ValueOf(&dest), path)
		require.True(t, field.IsValid())
		require.True(t, field.CanAddr())
	}
	assert.NotNil(t, dest.Author, "nested pointer structs get allocated")

	login := followPath(reflect.ValueOf(&dest), fieldPath{1, 1})
	login.SetString("ryan")
	assert.Equal(t, "ryan", dest.Author.Login)
}

func TestQueryBuilder(t *testing.T) {
	var qb QueryBuilder
	qb.Add(`SELECT id FROM article WHERE author_id = $?`, int64(7))
	qb.Add(`AND $? = ANY(tags) AND discord = $?`, "go", true)
	qb.Add(`ORDER BY created_at DESC`)

	assert.Equal(t, "SELECT id FROM article WHERE author_id = $1\nAND $2 = ANY(tags) AND discord = $3\nORDER BY created_at DESC\n", qb.String())
	assert.Equal(t, []any{int64(7), "go", true}, qb.Args())

	assert.Panics(t, func() {
		qb.Add(`LIMIT $?`)
	})
}
