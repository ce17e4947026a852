package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Points the package at a fake GitHub for the duration of the test.
func fakeGitHub(t *testing.T, handler http.Handler) {
	srv := httptest.NewServer(handler)
	oldBase, oldOAuth := BaseUrl, OAuthBaseUrl
	BaseUrl = srv.URL
	OAuthBaseUrl = srv.URL + "/login/oauth"
	t.Cleanup(func() {
		BaseUrl, OAuthBaseUrl = oldBase, oldOAuth
		srv.Close()
	})
}

func TestAuthorizeUrl(t *testing.T) {
	old := config.Config.GitHub.ClientID
	config.Config.GitHub.ClientID = "client123"
	defer func() { config.Config.GitHub.ClientID = old }()

	u, err := url.Parse(AuthorizeUrl("state456", "http://localhost:9001/auth/github/callback"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client123", q.Get("client_id"))
	assert.Equal(t, "state456", q.Get("state"))
	assert.Equal(t, "read:user read:org", q.Get("scope"))
	assert.Equal(t, "http://localhost:9001/auth/github/callback", q.Get("redirect_uri"))
}

func TestExchangeOAuthCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") == "good" {
			w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer","scope":"read:org,read:user"}`))
		} else {
			w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
		}
	})
	fakeGitHub(t, mux)

	res, err := ExchangeOAuthCode(context.Background(), "good", "http://localhost/cb")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", res.AccessToken)

	_, err = ExchangeOAuthCode(context.Background(), "stale", "http://localhost/cb")
	assert.ErrorContains(t, err, "bad_verification_code")
}

func TestIsActiveOrgMember(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/memberships/orgs/quillpress", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer member":
			w.Write([]byte(`{"state":"active","role":"member"}`))
		case "Bearer invited":
			w.Write([]byte(`{"state":"pending","role":"member"}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"Server Error"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
		}
	})
	fakeGitHub(t, mux)
	ctx := context.Background()

	ok, err := IsActiveOrgMember(ctx, "member", "quillpress")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsActiveOrgMember(ctx, "invited", "quillpress")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsActiveOrgMember(ctx, "stranger", "quillpress")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = IsActiveOrgMember(ctx, "broken", "quillpress")
	assert.ErrorContains(t, err, "Server Error")
}

func TestGetCurrentUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":583231,"login":"octocat","name":"The Octocat","avatar_url":"https://avatars.githubusercontent.com/u/583231","bio":null}`))
	})
	fakeGitHub(t, mux)

	user, err := GetCurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(583231), user.ID)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, "", user.Bio)
}

func TestContentStore(t *testing.T) {
	var received PutContentRequest
	var receivedPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/quillpress/article-images/contents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer ghp_secret", r.Header.Get("Authorization"))
		receivedPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		if received.Message == "Add image taken.png" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"content":{"name":"x","path":"images/x"}}`))
	})
	fakeGitHub(t, mux)

	store := ContentStore{Owner: "quillpress", Repo: "article-images", Branch: "main", Dir: "images"}

	t.Run("success", func(t *testing.T) {
		url, err := store.Put(context.Background(), "ghp_secret", imagepipe.Upload{
			Filename: "0123abcd.png",
			Data:     []byte("not really a png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "https://raw.githubusercontent.com/quillpress/article-images/main/images/0123abcd.png", url)
		assert.Equal(t, "/repos/quillpress/article-images/contents/images/0123abcd.png", receivedPath)
		assert.Equal(t, "main", received.Branch)

		decoded, err := base64.StdEncoding.DecodeString(received.Content)
		require.NoError(t, err)
		assert.Equal(t, "not really a png", string(decoded))
	})
	t.Run("remote message is surfaced", func(t *testing.T) {
		_, err := store.Put(context.Background(), "ghp_secret", imagepipe.Upload{Filename: "taken.png", Data: []byte("x")})
		assert.ErrorContains(t, err, "wasn't supplied")
	})
}
