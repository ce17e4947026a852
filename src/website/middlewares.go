package website

import (
	"net/http"
	"time"

	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quillurl"
)

func attachSite(site *Site) Middleware {
	return func(h Handler) Handler {
		return func(c *RequestContext) ResponseData {
			c.Site = site
			return h(c)
		}
	}
}

func panicCatcherMiddleware(h Handler) Handler {
	return func(c *RequestContext) (res ResponseData) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err, ok := recovered.(error)
				if !ok {
					err = oops.New(nil, "Recovered from panic with value: %v", recovered)
				}
				res = c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "request panicked"))
			}
		}()

		return h(c)
	}
}

func logRequestMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		logger := c.Logger.With().
			Str("method", c.Req.Method).
			Str("path", c.Req.URL.Path).
			Logger()
		c.SetLogger(&logger)

		start := time.Now()
		res := h(c)
		if !res.hijacked {
			c.Logger.Debug().
				Int("status", res.StatusCode).
				Dur("duration", time.Since(start)).
				Msg("Served request")
		}
		return res
	}
}

func logContextErrors(c *RequestContext, errs ...error) {
	for _, err := range errs {
		c.Logger.Error().Timestamp().Stack().Str("Requested", c.FullUrl()).Err(err).Msg("error occurred during request")
	}
}

func logContextErrorsMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		res := h(c)
		logContextErrors(c, res.Errors...)
		return res
	}
}

// Pages send visitors to sign in; API calls just get a 401.
func needsAuth(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if c.CurrentUser == nil {
			if c.WantsHTML() {
				return c.Redirect(quillurl.BuildLogin(c.FullUrl()), http.StatusSeeOther)
			}
			return c.RejectRequest(http.StatusUnauthorized, "You must be signed in.")
		}
		return h(c)
	}
}

// Every state-changing request must echo the session's CSRF token, either in
// the X-CSRF-Token header or as a form field.
func csrfMiddleware(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		token := c.Req.Header.Get(auth.CSRFHeaderName)
		if token == "" {
			c.Req.ParseMultipartForm(maxFormMemory)
			token = c.Req.Form.Get(auth.CSRFFieldName)
		}
		if !auth.CheckCSRF(c.CurrentSession, token) {
			var userID int64
			if c.CurrentUser != nil {
				userID = c.CurrentUser.ID
			}
			c.Logger.Warn().Int64("userId", userID).Msg("user failed CSRF validation - potential attack?")
			return c.RejectRequest(http.StatusForbidden, "Invalid CSRF token.")
		}
		return h(c)
	}
}

// Refuses a second submit from the same user while their first one is still
// uploading images or writing to the database.
func oneSubmitAtATime(h Handler) Handler {
	return func(c *RequestContext) ResponseData {
		if !c.Site.Submits.Begin(c.CurrentUser.ID) {
			return c.RejectRequest(http.StatusConflict, "You already have a submission in progress.")
		}
		defer c.Site.Submits.End(c.CurrentUser.ID)
		return h(c)
	}
}
