package logging

import (
	"bytes"
	"context"
	"testing"

	color "github.com/quillpress/quill/src/ansicolor"
	"github.com/quillpress/quill/src/oops"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrettyWriter(t *testing.T) {
	color.Disable()

	var out bytes.Buffer
	logger := zerolog.New(NewPrettyZerologWriter(&out))

	t.Run("simple message", func(t *testing.T) {
		out.Reset()
		logger.Info().Msg("Serving the website")
		assert.Contains(t, out.String(), "INFO: Serving the website\n")
		assert.NotContains(t, out.String(), "Fields:")
	})
	t.Run("fields and errors", func(t *testing.T) {
		out.Reset()
		logger.Error().
			Err(oops.New(nil, "upload failed")).
			Str("article", "k3j2h1").
			Msg("Failed to submit article")
		s := out.String()
		assert.Contains(t, s, "ERROR: Failed to submit article")
		assert.Contains(t, s, "ERROR: upload failed")
		assert.Contains(t, s, "article: \"k3j2h1\"")
	})
	t.Run("non-json passes through", func(t *testing.T) {
		out.Reset()
		w := NewPrettyZerologWriter(&out)
		w.Write([]byte("plain text\n"))
		assert.Equal(t, "plain text\n", out.String())
	})
}

func TestExtractLogger(t *testing.T) {
	t.Run("falls back to global", func(t *testing.T) {
		assert.Same(t, GlobalLogger(), ExtractLogger(context.Background()))
	})
	t.Run("attached logger wins", func(t *testing.T) {
		logger := zerolog.Nop()
		ctx := AttachLoggerToContext(&logger, context.Background())
		assert.Same(t, &logger, ExtractLogger(ctx))
	})
}
