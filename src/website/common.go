package website

import (
	"errors"
	"net/http"

	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quilldata"
)

func loadCommonData(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		sessionCookie, err := c.Req.Cookie(auth.SessionCookieName)
		if err == nil {
			user, session, err := getCurrentUserAndSession(c, sessionCookie.Value)
			if err != nil {
				return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to get current user"))
			}

			c.CurrentUser = user
			c.CurrentSession = session
			if user != nil {
				logger := c.Logger.With().Int64("userId", user.ID).Logger()
				c.SetLogger(&logger)
			}
		}
		// http.ErrNoCookie is the only error Cookie ever returns.

		return h(c)
	}
}

// Returns nil without an error if the session or its user is gone. Only
// serious failures are errors.
func getCurrentUserAndSession(c *RequestContext, sessionId string) (*models.User, *models.Session, error) {
	session, err := auth.GetSession(c, c.Site.Conn, sessionId, c.Site.Now())
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, nil, nil
		}
		return nil, nil, oops.New(err, "failed to get current session")
	}

	user, err := quilldata.FetchUser(c, c.Site.Conn, session.UserID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			logging.Debug().Int64("userId", session.UserID).Msg("returning no current user for this request because the user for the session couldn't be found")
			return nil, nil, nil
		}
		return nil, nil, oops.New(err, "failed to get user for session")
	}

	return user, session, nil
}

func logoutUser(c *RequestContext, res *ResponseData) {
	if c.CurrentSession != nil {
		err := auth.DeleteSession(c, c.Site.Conn, c.CurrentSession.ID)
		if err != nil {
			c.Logger.Error().Err(err).Msg("failed to delete session on logout")
		}
	}
	res.SetCookie(auth.DeleteSessionCookie())
}
