package parsing

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

// Final HTML for a published article.
var ArticleMarkdown = goldmark.New(
	goldmark.WithExtensions(makeGoldmarkExtensions()...),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Live previews in the editor. Heading ids are left off so they do not
// collide with the page around the preview.
var PreviewMarkdown = goldmark.New(
	goldmark.WithExtensions(makeGoldmarkExtensions()...),
)

// Plain text, for excerpts and announcements.
var PlaintextMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRenderer(plaintextRenderer{}),
)

func ParseMarkdown(source string, md goldmark.Markdown) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		panic(err)
	}
	return buf.String()
}

// The first maxLength code points of the article's text, cut at a word
// boundary where possible.
func Excerpt(source string, maxLength int) string {
	text := strings.Join(strings.Fields(ParseMarkdown(source, PlaintextMarkdown)), " ")
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)[:maxLength]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > maxLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

func makeGoldmarkExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		highlightExtension,
	}
}

var highlightExtension = highlighting.NewHighlighting(
	highlighting.WithFormatOptions(ChromaOptions...),
	highlighting.WithWrapperRenderer(func(w util.BufWriter, context highlighting.CodeBlockContext, entering bool) {
		if entering {
			w.WriteString(`<pre class="quill-code">`)
		} else {
			w.WriteString(`</pre>`)
		}
	}),
)
