package parsing

import (
	"io"
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
)

// Emits only the text of a document. Code blocks and images are dropped.
type plaintextRenderer struct{}

var _ renderer.Renderer = plaintextRenderer{}

var backslashRegex = regexp.MustCompile("\\\\(?P<char>[\\\\\\x60!\"#$%&'()*+,-./:;<=>?@\\[\\]^_{|}~])")

func (r plaintextRenderer) Render(w io.Writer, source []byte, n ast.Node) error {
	return ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindImage, ast.KindHTMLBlock, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			n := n.(*ast.Text)
			if _, err := w.Write(backslashRegex.ReplaceAll(n.Text(source), []byte("$1"))); err != nil {
				return ast.WalkStop, err
			}
			if n.SoftLineBreak() || n.HardLineBreak() {
				if _, err := w.Write([]byte(" ")); err != nil {
					return ast.WalkStop, err
				}
			}
		case ast.KindString:
			if _, err := w.Write(n.(*ast.String).Value); err != nil {
				return ast.WalkStop, err
			}
		case ast.KindParagraph, ast.KindHeading, ast.KindListItem:
			if _, err := w.Write([]byte(" ")); err != nil {
				return ast.WalkStop, err
			}
		}
		return ast.WalkContinue, nil
	})
}

func (r plaintextRenderer) AddOptions(...renderer.Option) {}
