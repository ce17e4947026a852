package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	t.Run("fenced code with a language", func(t *testing.T) {
		html := ParseMarkdown("```go\nfunc main() {\n\tfmt.Println(\"Hello, world!\")\n}\n```", ArticleMarkdown)
		assert.Equal(t, 1, strings.Count(html, "<pre"))
		assert.Contains(t, html, `class="quill-code"`)
		assert.Contains(t, html, "Println")
	})
	t.Run("gfm tables", func(t *testing.T) {
		html := ParseMarkdown("| a | b |\n|---|---|\n| 1 | 2 |\n", ArticleMarkdown)
		assert.Contains(t, html, "<table>")
	})
	t.Run("raw html is not passed through", func(t *testing.T) {
		html := ParseMarkdown("<script>alert(1)</script>", ArticleMarkdown)
		assert.NotContains(t, html, "<script>")
	})
	t.Run("images", func(t *testing.T) {
		html := ParseMarkdown("![a cat](https://cdn.example/cat.png)", PreviewMarkdown)
		assert.Contains(t, html, `<img src="https://cdn.example/cat.png" alt="a cat">`)
	})
	t.Run("heading ids", func(t *testing.T) {
		assert.Contains(t, ParseMarkdown("# Getting Started", ArticleMarkdown), `id="getting-started"`)
		assert.NotContains(t, ParseMarkdown("# Getting Started", PreviewMarkdown), `id=`)
	})
}

func TestExcerpt(t *testing.T) {
	src := "# Title\n\nSome *emphasized* text with a [link](https://example.com).\n\n```go\nignored()\n```\n\n![pic](/images/abc)"
	assert.Equal(t, "Title Some emphasized text with a link.", Excerpt(src, 200))

	long := strings.Repeat("word ", 50)
	excerpt := Excerpt(long, 22)
	assert.Equal(t, "word word word word…", excerpt)
}
