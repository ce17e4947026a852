package s3dev

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketAndKey(t *testing.T) {
	bucket, key := bucketAndKey("/quill-images")
	assert.Equal(t, "quill-images", bucket)
	assert.Equal(t, "", key)

	bucket, key = bucketAndKey("/quill-images/articles/a1b2.png")
	assert.Equal(t, "quill-images", bucket)
	assert.Equal(t, "articles~a1b2.png", key)
}

func TestServer(t *testing.T) {
	srv := httptest.NewServer(NewServer(t.TempDir()))
	defer srv.Close()

	do := func(method, path, body string) *http.Response {
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "image/png")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { res.Body.Close() })
		return res
	}

	res := do(http.MethodPut, "/bucket/a.png", "data")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "<Code>NoSuchBucket</Code>")

	res = do(http.MethodPut, "/bucket", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodPut, "/bucket/a.png", "data")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = do(http.MethodGet, "/bucket/a.png", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, _ = io.ReadAll(res.Body)
	assert.Equal(t, "data", string(body))
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))

	res = do(http.MethodGet, "/bucket/missing.png", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
