package quillurl

import (
	"fmt"
	"regexp"
	"strconv"
)

var RegexHomepage = regexp.MustCompile(`^/$`)

func BuildHomepage() string {
	return Url("/", nil)
}

/*
* Auth
 */

var RegexLogin = regexp.MustCompile(`^/login$`)

func BuildLogin(destination string) string {
	var query []Q
	if destination != "" {
		query = append(query, Q{Name: "redirect", Value: destination})
	}
	return Url("/login", query)
}

var RegexGitHubCallback = regexp.MustCompile(`^/auth/github/callback$`)

func BuildGitHubCallback() string {
	return Url("/auth/github/callback", nil)
}

var RegexLogout = regexp.MustCompile(`^/logout$`)

func BuildLogout() string {
	return Url("/logout", nil)
}

/*
* Articles
 */

const articleIDPattern = `(?P<articleid>[0-9a-zA-Z_-]+)`

var RegexArticle = regexp.MustCompile(`^/articles/` + articleIDPattern + `$`)

func BuildArticle(id string) string {
	return Url("/articles/"+id, nil)
}

var RegexAPIArticles = regexp.MustCompile(`^/api/articles$`)

type ArticleListQuery struct {
	Tag      string
	AuthorID int64
	Page     int
}

func BuildAPIArticles(q ArticleListQuery) string {
	var query []Q
	if q.Tag != "" {
		query = append(query, Q{Name: "tag", Value: q.Tag})
	}
	if q.AuthorID != 0 {
		query = append(query, Q{Name: "author", Value: strconv.FormatInt(q.AuthorID, 10)})
	}
	if q.Page > 1 {
		query = append(query, Q{Name: "page", Value: strconv.Itoa(q.Page)})
	}
	return Url("/api/articles", query)
}

var RegexAPIArticle = regexp.MustCompile(`^/api/articles/` + articleIDPattern + `$`)

func BuildAPIArticle(id string) string {
	return Url("/api/articles/"+id, nil)
}

var RegexAPIArticleEdit = regexp.MustCompile(`^/api/articles/` + articleIDPattern + `/edit$`)

func BuildAPIArticleEdit(id string) string {
	return Url(fmt.Sprintf("/api/articles/%s/edit", id), nil)
}

/*
* Edit sessions
 */

const editSessionPattern = `(?P<sessionid>[0-9a-f]+)`

var RegexAPIEditSessions = regexp.MustCompile(`^/api/editsessions$`)

func BuildAPIEditSessions() string {
	return Url("/api/editsessions", nil)
}

var RegexAPIEditSession = regexp.MustCompile(`^/api/editsessions/` + editSessionPattern + `$`)

func BuildAPIEditSession(id string) string {
	return Url("/api/editsessions/"+id, nil)
}

var RegexAPIEditSessionImages = regexp.MustCompile(`^/api/editsessions/` + editSessionPattern + `/images$`)

func BuildAPIEditSessionImages(id string) string {
	return Url(fmt.Sprintf("/api/editsessions/%s/images", id), nil)
}

/*
* Everything else
 */

var RegexAPITags = regexp.MustCompile(`^/api/tags$`)

func BuildAPITags() string {
	return Url("/api/tags", nil)
}

var RegexAPISeries = regexp.MustCompile(`^/api/series/(?P<seriesid>[0-9]+)$`)

func BuildAPISeries(id int) string {
	return Url("/api/series/"+strconv.Itoa(id), nil)
}

var RegexAPIUser = regexp.MustCompile(`^/api/users/(?P<userid>[0-9]+)$`)

func BuildAPIUser(id int64) string {
	return Url("/api/users/"+strconv.FormatInt(id, 10), nil)
}

var RegexAPIMe = regexp.MustCompile(`^/api/me$`)

func BuildAPIMe() string {
	return Url("/api/me", nil)
}

var RegexAPIPreview = regexp.MustCompile(`^/api/preview$`)

func BuildAPIPreview() string {
	return Url("/api/preview", nil)
}

var RegexAPIPreviewSocket = regexp.MustCompile(`^/api/preview/ws$`)

func BuildAPIPreviewSocket() string {
	return Url("/api/preview/ws", nil)
}
