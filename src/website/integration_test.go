//go:build integration

package website

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/github"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/migration"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setUpPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
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
		},
		Started: true,
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
	config.Config.Discord.WebhookURL = ""

	require.NoError(t, migration.Migrate(ctx, migration.LatestVersion()))

	pool, err := db.NewConnPool(ctx)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int64 {
	t.Helper()
	count, err := db.QueryOneScalar[int64](context.Background(), pool, `SELECT COUNT(*) FROM `+table)
	require.NoError(t, err)
	return count
}

// Points the github package at a fake that hands out a token and reports
// the given membership state for the quillpress org.
func fakeGitHubOrg(t *testing.T, membership string) *int {
	profileFetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer","scope":"read:org,read:user"}`))
	})
	mux.HandleFunc("/user/memberships/orgs/quillpress", func(w http.ResponseWriter, r *http.Request) {
		if membership == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Write([]byte(`{"state":"` + membership + `","role":"member"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		profileFetches++
		w.Write([]byte(`{"id":583231,"login":"octocat","name":"The Octocat","avatar_url":"","bio":null}`))
	})

	srv := httptest.NewServer(mux)
	oldBase, oldOAuth := github.BaseUrl, github.OAuthBaseUrl
	github.BaseUrl = srv.URL
	github.OAuthBaseUrl = srv.URL + "/login/oauth"
	t.Cleanup(func() {
		github.BaseUrl, github.OAuthBaseUrl = oldBase, oldOAuth
		srv.Close()
	})
	return &profileFetches
}

func TestGitHubCallbackMembership(t *testing.T) {
	pool := setUpPostgres(t)
	config.Config.GitHub.Org = "quillpress"

	site := newTestSite()
	site.Conn = pool

	callback := func(t *testing.T) *httptest.ResponseRecorder {
		pending, err := auth.CreatePendingLogin(context.Background(), pool, "/articles/abc", site.Now())
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+url.Values{
			"state": {pending.ID},
			"code":  {"good"},
		}.Encode(), nil)
		NewWebsiteRoutes(site).ServeHTTP(rec, req)
		return rec
	}

	for _, membership := range []string{"", "pending"} {
		t.Run("non-member "+membership, func(t *testing.T) {
			profileFetches := fakeGitHubOrg(t, membership)

			rec := callback(t)

			assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
			assert.Empty(t, rec.Result().Cookies())
			assert.Equal(t, 0, *profileFetches)
			assert.Zero(t, countRows(t, pool, "quill_user"))
			assert.Zero(t, countRows(t, pool, "session"))
			assert.Zero(t, countRows(t, pool, "pending_login"), "the OAuth state is single use")
		})
	}

	t.Run("member", func(t *testing.T) {
		fakeGitHubOrg(t, "active")

		rec := callback(t)

		assert.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		assert.Equal(t, "/articles/abc", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
		assert.EqualValues(t, 1, countRows(t, pool, "quill_user"))
		assert.EqualValues(t, 1, countRows(t, pool, "session"))
	})
}

func TestSubmitArticleImages(t *testing.T) {
	pool := setUpPostgres(t)
	ctx := context.Background()

	author, err := quilldata.UpsertGitHubUser(ctx, pool, quilldata.GitHubProfile{ID: 101, Login: "ada"}, time.Now())
	require.NoError(t, err)
	session := &models.Session{ID: "session", UserID: author.ID, CSRFToken: testSession.CSRFToken}

	submit := func(t *testing.T, site *Site, values url.Values) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		buildRoutes(site, signedInAs(author, session)).ServeHTTP(rec, articleSubmitRequest(values))
		return rec
	}

	t.Run("upload failure writes nothing", func(t *testing.T) {
		site := newTestSite()
		site.Conn = pool
		site.Images = &imagepipe.Pipeline{
			Store:   &fakeImageStore{err: errors.New("image host is down")},
			Grammar: imagepipe.EditorGrammar,
		}
		sessionID := site.EditSessions.Create(author.ID)
		refs, _ := site.EditSessions.Get(sessionID, author.ID)
		id := refs.Add("cat.png", tinyPNG(t))

		rec := submit(t, site, url.Values{
			"title":        {"Cats"},
			"body":         {"![cat](" + imagepipe.PlaceholderPath(id) + ") and ![dot](data:image/gif;base64,R0lGODlhAQABAAAAACw=)"},
			"tags":         {"cats"},
			"edit_session": {sessionID},
		})

		assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
		assert.Zero(t, countRows(t, pool, "article"))
		assert.Zero(t, countRows(t, pool, "article_tag"))
		user, err := quilldata.FetchUser(ctx, pool, author.ID)
		require.NoError(t, err)
		assert.Equal(t, author.XP, user.XP)
		assert.Equal(t, 1, refs.Len())
	})

	t.Run("published images leave the edit session", func(t *testing.T) {
		store := &fakeImageStore{}
		site := newTestSite()
		site.Conn = pool
		site.Images = &imagepipe.Pipeline{Store: store, Grammar: imagepipe.EditorGrammar}
		sessionID := site.EditSessions.Create(author.ID)
		refs, _ := site.EditSessions.Get(sessionID, author.ID)
		used := refs.Add("cat.png", tinyPNG(t))
		unused := refs.Add("dog.png", tinyPNG(t))

		rec := submit(t, site, url.Values{
			"title":        {"Cats"},
			"body":         {"![cat](" + imagepipe.PlaceholderPath(used) + ")"},
			"edit_session": {sessionID},
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.EqualValues(t, 1, countRows(t, pool, "article"))
		require.Len(t, store.puts, 1)
		body, err := db.QueryOneScalar[string](ctx, pool, `SELECT body FROM article`)
		require.NoError(t, err)
		assert.Equal(t, "![cat](https://images.example/"+store.puts[0].Filename+")", body)

		_, ok := refs.Get(used)
		assert.False(t, ok)
		_, ok = refs.Get(unused)
		assert.True(t, ok, "images the article did not use stay available")
	})
}
