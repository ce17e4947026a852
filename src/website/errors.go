package website

import (
	"fmt"
	"net/http"
)

func FourOhFour(c *RequestContext) ResponseData {
	return c.RejectRequest(http.StatusNotFound, "Not Found")
}

// A SafeError wraps another error with a message that is safe to show to a
// user. The wrapped error is what gets logged.
type SafeError struct {
	Wrapped error
	Msg     string
}

func NewSafeError(err error, msg string, args ...interface{}) error {
	return &SafeError{
		Wrapped: err,
		Msg:     fmt.Sprintf(msg, args...),
	}
}

func (s *SafeError) Error() string {
	if s.Wrapped == nil {
		return s.Msg
	}
	return s.Msg + ": " + s.Wrapped.Error()
}

func (s *SafeError) Unwrap() error {
	return s.Wrapped
}

// Validation failures, keyed by form field.
func validationErrorResponse(fields map[string]string) ResponseData {
	var res ResponseData
	res.StatusCode = http.StatusBadRequest
	res.WriteJson(errorJson{
		Error:  "The submission has errors.",
		Fields: fields,
	})
	return res
}
