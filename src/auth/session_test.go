package auth

import (
	"testing"
	"time"

	"github.com/quillpress/quill/src/models"
	"github.com/stretchr/testify/assert"
)

func TestMakeToken(t *testing.T) {
	a, b := makeToken(), makeToken()
	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, "+")
}

func TestCheckCSRF(t *testing.T) {
	session := &models.Session{CSRFToken: "abc123"}
	assert.True(t, CheckCSRF(session, "abc123"))
	assert.False(t, CheckCSRF(session, "abc124"))
	assert.False(t, CheckCSRF(session, ""))
	assert.False(t, CheckCSRF(nil, "abc123"))
	assert.False(t, CheckCSRF(&models.Session{}, ""))
}

func TestSessionCookie(t *testing.T) {
	expires := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cookie := NewSessionCookie(&models.Session{ID: "sess", ExpiresAt: expires})
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "sess", cookie.Value)
	assert.Equal(t, expires, cookie.Expires)
	assert.True(t, cookie.HttpOnly)

	assert.Equal(t, -1, DeleteSessionCookie().MaxAge)
}
