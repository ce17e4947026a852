package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
)

const SessionCookieName = "QuillSession"

// Submitted with every state-changing request, as a header or form field.
const CSRFHeaderName = "X-CSRF-Token"
const CSRFFieldName = "csrf_token"

const sessionDuration = time.Hour * 24 * 14

var ErrNoSession = errors.New("no session found")

func makeToken() string {
	idBytes := make([]byte, 30)
	_, err := io.ReadFull(rand.Reader, idBytes)
	if err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(idBytes)
}

// Expired sessions are treated as missing even before the cleanup job gets
// to them.
func GetSession(ctx context.Context, conn db.ConnOrTx, id string, now time.Time) (*models.Session, error) {
	sess, err := db.QueryOne[models.Session](ctx, conn,
		`SELECT $columns FROM session WHERE id = $1 AND expires_at > $2`,
		id,
		now,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoSession
		}
		return nil, oops.New(err, "failed to get session")
	}
	return sess, nil
}

func CreateSession(ctx context.Context, conn db.ConnOrTx, userID int64, now time.Time) (*models.Session, error) {
	session := models.Session{
		ID:        makeToken(),
		UserID:    userID,
		CSRFToken: makeToken(),
		ExpiresAt: now.Add(sessionDuration),
	}

	_, err := conn.Exec(ctx,
		"INSERT INTO session (id, user_id, csrf_token, expires_at) VALUES ($1, $2, $3, $4)",
		session.ID, session.UserID, session.CSRFToken, session.ExpiresAt,
	)
	if err != nil {
		return nil, oops.New(err, "failed to persist session")
	}
	return &session, nil
}

// Deletes a session by id. A missing session is not an error.
func DeleteSession(ctx context.Context, conn db.ConnOrTx, id string) error {
	_, err := conn.Exec(ctx, "DELETE FROM session WHERE id = $1", id)
	if err != nil {
		return oops.New(err, "failed to delete session")
	}
	return nil
}

func NewSessionCookie(session *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:  SessionCookieName,
		Value: session.ID,
		Path:  "/",

		Domain:  config.Config.Auth.CookieDomain,
		Expires: session.ExpiresAt,

		Secure:   config.Config.Auth.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:   SessionCookieName,
		Path:   "/",
		Domain: config.Config.Auth.CookieDomain,
		MaxAge: -1,
	}
}

func CheckCSRF(session *models.Session, submitted string) bool {
	if session == nil || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session.CSRFToken), []byte(submitted)) == 1
}
