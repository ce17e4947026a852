package website

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageStore struct {
	err error

	mu   sync.Mutex
	puts []imagepipe.Upload
}

func (s *fakeImageStore) Put(ctx context.Context, credential string, upload imagepipe.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, upload)
	if s.err != nil {
		return "", s.err
	}
	return "https://images.example/" + upload.Filename, nil
}

func articleSubmitRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(auth.CSRFHeaderName, testSession.CSRFToken)
	return req
}

// The test site has no database. Getting past the upload step would panic
// on the nil connection and turn into a 500, so a 502 also shows that
// nothing was written.
func TestSubmitUploadFailure(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		store := &fakeImageStore{err: errors.New("503 from the image host")}
		site := newTestSite()
		site.Images = &imagepipe.Pipeline{Store: store, Grammar: imagepipe.EditorGrammar}

		sessionID := site.EditSessions.Create(testUser.ID)
		refs, _ := site.EditSessions.Get(sessionID, testUser.ID)
		id := refs.Add("cat.png", tinyPNG(t))

		rec := serveTest(t, site, testUser, articleSubmitRequest(url.Values{
			"title":        {"Cats"},
			"body":         {"Look: ![cat](" + imagepipe.PlaceholderPath(id) + ")"},
			"edit_session": {sessionID},
		}))

		assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
		assert.Contains(t, decodeError(t, rec).Error, "Nothing was saved")
		assert.NotContains(t, rec.Body.String(), "503 from the image host")
		assert.Len(t, store.puts, 1)

		assert.Equal(t, 1, refs.Len())
		_, ok := refs.Get(id)
		assert.True(t, ok, "the edit session keeps its images for a retry")

		assert.True(t, site.Submits.Begin(testUser.ID), "a failed submit releases the user's slot")
	})
	t.Run("missing credential", func(t *testing.T) {
		store := &fakeImageStore{}
		site := newTestSite()
		site.Images = &imagepipe.Pipeline{
			Store:   store,
			Grammar: imagepipe.EditorGrammar,
			Credentials: func(ctx context.Context) (string, error) {
				return "", imagepipe.ErrMissingCredential
			},
		}

		rec := serveTest(t, site, testUser, articleSubmitRequest(url.Values{
			"title": {"Pixel"},
			"body":  {"![dot](data:image/gif;base64,R0lGODlhAQABAAAAACw=)"},
		}))

		assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
		assert.Contains(t, decodeError(t, rec).Error, "not configured")
		assert.Empty(t, store.puts)
	})
}

func TestSubmitExpiredEditSession(t *testing.T) {
	site := newTestSite()
	site.Images = &imagepipe.Pipeline{Store: &fakeImageStore{}, Grammar: imagepipe.EditorGrammar}

	rec := serveTest(t, site, testUser, articleSubmitRequest(url.Values{
		"title":        {"Cats"},
		"body":         {"text"},
		"edit_session": {"gone"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "edit_session")
}

func TestSubmitValidationTouchesNothing(t *testing.T) {
	require.NotPanics(t, func() {
		rec := serveTest(t, newTestSite(), testUser, articleSubmitRequest(url.Values{"title": {"no body"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
