package oops

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var errSample = errors.New("some error occurred that you should handle")

type sampleErrorType struct {
	Message string
}

func (s sampleErrorType) Error() string {
	return s.Message
}

func init() {
	zerolog.ErrorStackMarshaler = ZerologStackMarshaler
}

func TestNew(t *testing.T) {
	t.Run("errors.Is", func(t *testing.T) {
		err := New(errSample, "test error")
		assert.True(t, errors.Is(err, errSample))
	})
	t.Run("errors.As", func(t *testing.T) {
		err := New(sampleErrorType{Message: "some fancy error type has occurred"}, "test error")
		var sErr sampleErrorType
		assert.True(t, errors.As(err, &sErr))
	})
	t.Run("message without cause", func(t *testing.T) {
		err := New(nil, "upload of %s failed", "cat.png")
		assert.Equal(t, "upload of cat.png failed", err.Error())
	})
	t.Run("message with cause", func(t *testing.T) {
		err := New(errSample, "outer")
		assert.Equal(t, "outer: "+errSample.Error(), err.Error())
	})
	t.Run("stack points at caller", func(t *testing.T) {
		err := New(nil, "here")
		var asOops *Error
		if assert.True(t, errors.As(err, &asOops)) && assert.NotEmpty(t, asOops.Stack) {
			assert.Contains(t, asOops.Stack[0].Function, "TestNew")
		}
	})
}
