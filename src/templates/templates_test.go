package templates

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	templates, errs := getTemplatesFromFS(embeddedTemplateFs)
	require.Empty(t, errs)
	assert.Contains(t, templates, "article.html")
	assert.Contains(t, templates, "index.html")
}

func TestArticleTemplate(t *testing.T) {
	created := time.Now().Add(-3 * time.Hour)
	article := Article{
		Title:   "Pointers <3",
		Url:     "/articles/abc",
		Author:  User{Name: "Ada", ProfileUrl: "https://github.com/ada"},
		Editors: []User{{Name: "Grace"}, {Name: "Linus"}},
		Tags:    []Tag{{Name: "go", Url: "/api/articles?tag=go"}},
		Created: created,
		Updated: created,
	}
	article.SetContent("<p>hello</p>")

	var buf bytes.Buffer
	err := GetTemplate("article.html").Execute(&buf, ArticlePageData{
		BaseData: BaseData{Title: article.Title, LoginUrl: "/login"},
		Article:  article,
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Pointers &lt;3")
	assert.Contains(t, html, "<p>hello</p>")
	assert.Contains(t, html, "Grace</a>, <a")
	assert.Contains(t, html, "3 hours ago")
	assert.Contains(t, html, "Sign in with GitHub")
	assert.NotContains(t, html, "edited")
}

func TestIndexTemplateEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := GetTemplate("index.html").Execute(&buf, IndexPageData{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Nothing has been published yet.")
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Less than a minute ago", relativeDate(now, now.Add(-10*time.Second)))
	assert.Equal(t, "5 minutes ago", relativeDate(now, now.Add(-5*time.Minute)))
	assert.Equal(t, "1 hour, 30 minutes ago", relativeDate(now, now.Add(-90*time.Minute)))
	assert.Equal(t, "2 days ago", relativeDate(now, now.Add(-48*time.Hour)))
}
