package website

import (
	"errors"
	"net/http"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/parsing"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/quillurl"
	"github.com/quillpress/quill/src/templates"
)

func getBaseData(c *RequestContext, title string) templates.BaseData {
	base := templates.BaseData{
		Title:     title,
		LoginUrl:  quillurl.BuildLogin(c.FullUrl()),
		LogoutUrl: quillurl.BuildLogout(),
		Session:   templates.SessionToTemplate(c.CurrentSession),
	}
	if c.CurrentUser != nil {
		user := templates.UserToTemplate(c.CurrentUser)
		base.User = &user
	}
	return base
}

func Homepage(c *RequestContext) ResponseData {
	articles, err := quilldata.FetchArticles(c, c.Site.Conn, quilldata.ArticleQuery{Limit: articlesPerPage})
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	data := templates.IndexPageData{
		BaseData: getBaseData(c, ""),
	}
	for _, a := range articles {
		article := templates.ArticleToTemplate(&a.Article, &a.Author, a.Editors, a.Tags)
		article.Excerpt = parsing.Excerpt(a.Article.Body, excerptLength)
		data.Articles = append(data.Articles, article)
	}

	var res ResponseData
	if err := templates.GetTemplate("index.html").Execute(&res, data); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	return res
}

func ArticlePage(c *RequestContext) ResponseData {
	a, err := quilldata.FetchArticle(c, c.Site.Conn, c.PathParams["articleid"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	article := templates.ArticleToTemplate(&a.Article, &a.Author, a.Editors, a.Tags)
	article.SetContent(parsing.ParseMarkdown(a.Article.Body, parsing.ArticleMarkdown))

	data := templates.ArticlePageData{
		BaseData: getBaseData(c, a.Article.Title),
		Article:  article,
	}
	data.CanonicalLink = quillurl.BuildArticle(a.Article.ID)
	data.Description = parsing.Excerpt(a.Article.Body, excerptLength)
	if c.CurrentUser != nil {
		var editorIDs []int64
		for _, editor := range a.Editors {
			editorIDs = append(editorIDs, editor.ID)
		}
		data.CanEdit = a.Article.CanEdit(c.CurrentUser.ID, editorIDs)
	}

	var res ResponseData
	if err := templates.GetTemplate("article.html").Execute(&res, data); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	return res
}
