//go:build integration

package quilldata_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/migration"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/xp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Starts a throwaway Postgres, points the global config at it and migrates
// it to the latest version.
func setUpPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image: "postgres:15-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "quill",
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "quill",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	original := config.Config
	t.Cleanup(func() { config.Config = original })
	config.Config.Postgres.User = "quill"
	config.Config.Postgres.Password = "password"
	config.Config.Postgres.DbName = "quill"
	config.Config.Postgres.Hostname = host
	config.Config.Postgres.Port = port.Int()

	require.NoError(t, migration.Migrate(ctx, migration.LatestVersion()))

	pool, err := db.NewConnPool(ctx)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestArticleLifecycle(t *testing.T) {
	pool := setUpPostgres(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	author, err := quilldata.UpsertGitHubUser(ctx, pool, quilldata.GitHubProfile{ID: 101, Login: "ada"}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, author.XP)
	assert.Equal(t, 1, author.Level)
	_, err = quilldata.UpsertGitHubUser(ctx, pool, quilldata.GitHubProfile{ID: 102, Login: "grace"}, now)
	require.NoError(t, err)

	var articleID string
	t.Run("create", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		body := "A body that is exactly forty characters."
		article, err := quilldata.CreateArticle(ctx, tx, author.ID, quilldata.ArticleSubmission{
			Title:     "First",
			Body:      body,
			Tags:      []string{"go", "go", "postgres"},
			EditorIDs: []int64{102, 102, 101, 999},
		}, now)
		require.NoError(t, err)
		articleID = article.ID
		assert.Len(t, article.ID, quilldata.ArticleIDLength)

		newXP, level, err := quilldata.AwardXP(ctx, tx, author.ID, xp.CreateStrategy, body)
		require.NoError(t, err)
		assert.Equal(t, 30, newXP)
		assert.Equal(t, 1, level)
		require.NoError(t, tx.Commit(ctx))

		fetched, err := quilldata.FetchArticle(ctx, pool, articleID)
		require.NoError(t, err)
		assert.Equal(t, "First", fetched.Article.Title)
		assert.Equal(t, "ada", fetched.Author.Login)
		assert.Equal(t, []string{"go", "postgres"}, fetched.Tags)
		require.Len(t, fetched.Editors, 1)
		assert.Equal(t, int64(102), fetched.Editors[0].ID)
	})

	t.Run("edit replaces tags and editors", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		existing, err := quilldata.FetchArticle(ctx, tx, articleID)
		require.NoError(t, err)
		_, err = quilldata.UpdateArticle(ctx, tx, &existing.Article, quilldata.ArticleSubmission{
			Title: "First, revised",
			Body:  "short",
			Tags:  []string{"postgres"},
		}, now.Add(time.Hour))
		require.NoError(t, err)
		_, _, err = quilldata.AwardXP(ctx, tx, author.ID, xp.EditStrategy, "short")
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		fetched, err := quilldata.FetchArticle(ctx, pool, articleID)
		require.NoError(t, err)
		assert.Equal(t, "First, revised", fetched.Article.Title)
		assert.Equal(t, []string{"postgres"}, fetched.Tags)
		assert.Empty(t, fetched.Editors)

		user, err := quilldata.FetchUser(ctx, pool, author.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, user.XP)
		assert.Equal(t, 1, user.Level)
	})

	t.Run("tags survive and are unique", func(t *testing.T) {
		require.NoError(t, quilldata.EnsureTags(ctx, pool, []string{"go", "go", "rust"}))
		tags, err := quilldata.FetchTags(ctx, pool)
		require.NoError(t, err)

		var names []string
		for _, tag := range tags {
			names = append(names, tag.Name)
		}
		assert.Equal(t, []string{"go", "postgres", "rust"}, names)
	})

	t.Run("listing by tag", func(t *testing.T) {
		articles, err := quilldata.FetchArticles(ctx, pool, quilldata.ArticleQuery{Tag: "postgres", Limit: 10})
		require.NoError(t, err)
		require.Len(t, articles, 1)

		count, err := quilldata.CountArticles(ctx, pool, quilldata.ArticleQuery{Tag: "go"})
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("level follows xp", func(t *testing.T) {
		var lastLevel int
		for i := 0; i < 5; i++ {
			body := fmt.Sprintf("%0500d", i)
			newXP, level, err := quilldata.AwardXP(ctx, pool, author.ID, xp.CreateStrategy, body)
			require.NoError(t, err)
			assert.Equal(t, xp.Level(newXP), level)
			assert.GreaterOrEqual(t, level, lastLevel)
			lastLevel = level
		}
	})

	t.Run("series in order", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)
		id, err := quilldata.CreateSeries(ctx, tx, "Intro", "", []models.SeriesArticle{
			{ArticleID: articleID, Ord: 1, Title: "Part one"},
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		series, err := quilldata.FetchSeries(ctx, pool, id)
		require.NoError(t, err)
		require.Len(t, series.Articles, 1)
		assert.Equal(t, "Part one", series.Articles[0].Title)
	})

	t.Run("image credential", func(t *testing.T) {
		cred := quilldata.ImageCredential(pool, "github")
		_, err := cred(ctx)
		assert.ErrorIs(t, err, imagepipe.ErrMissingCredential)

		require.NoError(t, quilldata.SetKey(ctx, pool, "github", "tok"))
		value, err := cred(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", value)
	})
}
