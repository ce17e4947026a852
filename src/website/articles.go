package website

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/discord"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/parsing"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/quillurl"
	"github.com/quillpress/quill/src/xp"
)

const articlesPerPage = 20

const excerptLength = 280

type userJson struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url"`
	Bio       string `json:"bio,omitempty"`
	XP        int    `json:"xp"`
	Level     int    `json:"level"`
}

func userToJson(u *models.User) userJson {
	return userJson{
		ID:        u.ID,
		Login:     u.Login,
		Name:      u.BestName(),
		AvatarUrl: u.AvatarUrl,
		Bio:       u.Bio,
		XP:        u.XP,
		Level:     u.Level,
	}
}

type articleJson struct {
	ID        string     `json:"id"`
	Url       string     `json:"url"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Html      string     `json:"html,omitempty"`
	Excerpt   string     `json:"excerpt,omitempty"`
	Author    userJson   `json:"author"`
	Editors   []userJson `json:"editors"`
	Tags      []string   `json:"tags"`
	Discord   bool       `json:"discord"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func articleToJson(a *quilldata.ArticleAndStuff) articleJson {
	result := articleJson{
		ID:        a.Article.ID,
		Url:       quillurl.BuildArticle(a.Article.ID),
		Title:     a.Article.Title,
		Author:    userToJson(&a.Author),
		Editors:   []userJson{},
		Tags:      a.Tags,
		Discord:   a.Article.Discord,
		CreatedAt: a.Article.CreatedAt,
		UpdatedAt: a.Article.UpdatedAt,
	}
	for _, editor := range a.Editors {
		result.Editors = append(result.Editors, userToJson(editor))
	}
	return result
}

func APIArticles(c *RequestContext) ResponseData {
	query := c.Req.URL.Query()

	q := quilldata.ArticleQuery{Tag: query.Get("tag")}
	if author := query.Get("author"); author != "" {
		authorID, err := strconv.ParseInt(author, 10, 64)
		if err != nil {
			return c.RejectRequest(http.StatusBadRequest, "author must be a user id")
		}
		q.AuthorID = authorID
	}

	total, err := quilldata.CountArticles(c, c.Site.Conn, q)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	page, totalPages, ok := getPageInfo(query.Get("page"), total, articlesPerPage)
	if !ok {
		return c.RejectRequest(http.StatusBadRequest, "page out of range")
	}

	q.Limit = articlesPerPage
	q.Offset = (page - 1) * articlesPerPage
	articles, err := quilldata.FetchArticles(c, c.Site.Conn, q)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	type articlesJson struct {
		Articles   []articleJson `json:"articles"`
		Page       int           `json:"page"`
		TotalPages int           `json:"total_pages"`
		Total      int           `json:"total"`
	}
	result := articlesJson{
		Articles:   []articleJson{},
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
	for _, article := range articles {
		aj := articleToJson(article)
		aj.Excerpt = parsing.Excerpt(article.Article.Body, excerptLength)
		result.Articles = append(result.Articles, aj)
	}

	var res ResponseData
	res.WriteJson(result)
	return res
}

func APIArticle(c *RequestContext) ResponseData {
	article, err := quilldata.FetchArticle(c, c.Site.Conn, c.PathParams["articleid"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	aj := articleToJson(article)
	aj.Body = article.Article.Body
	aj.Html = parsing.ParseMarkdown(article.Article.Body, parsing.ArticleMarkdown)

	var res ResponseData
	res.WriteJson(aj)
	return res
}

func APIArticleCreate(c *RequestContext) ResponseData {
	return submitArticle(c, nil)
}

func APIArticleEdit(c *RequestContext) ResponseData {
	existing, err := quilldata.FetchArticle(c, c.Site.Conn, c.PathParams["articleid"])
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	editorIDs, err := quilldata.FetchEditorIDs(c, c.Site.Conn, existing.Article.ID)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	if !existing.Article.CanEdit(c.CurrentUser.ID, editorIDs) {
		return c.RejectRequest(http.StatusForbidden, "You can't edit this article.")
	}

	return submitArticle(c, &existing.Article)
}

/*
Runs a create (existing == nil) or an edit through the same steps: validate,
externalize images, write the article and the XP award in one transaction,
then announce. Any upload failure aborts the whole submit before anything is
written, and the edit session keeps its images so the user can retry.
*/
func submitArticle(c *RequestContext, existing *models.Article) ResponseData {
	form, fieldErrs := parseArticleForm(c.Req)
	if fieldErrs != nil {
		return validationErrorResponse(fieldErrs)
	}

	var refs *imagepipe.RefMap
	if form.EditSession != "" {
		var ok bool
		refs, ok = c.Site.EditSessions.Get(form.EditSession, c.CurrentUser.ID)
		if !ok {
			return validationErrorResponse(map[string]string{
				"edit_session": "Your edit session expired. Please upload your images again.",
			})
		}
	}

	externalized, err := c.Site.Images.Externalize(c, form.Body, refs)
	if err != nil {
		if errors.Is(err, imagepipe.ErrMissingCredential) {
			return c.ErrorResponse(http.StatusBadGateway, NewSafeError(err, "Image uploads are not configured. Please contact an administrator."))
		}
		return c.ErrorResponse(http.StatusBadGateway, NewSafeError(err, "Failed to upload your images. Nothing was saved; please try again."))
	}
	if len(externalized.Unresolved) > 0 {
		c.Logger.Warn().Int("count", len(externalized.Unresolved)).Msg("submitted article references images that were never uploaded")
	}

	sub := form.Submission()
	sub.Body = externalized.Markdown
	now := c.Site.Now()

	tx, err := c.Site.Conn.Begin(c)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to start transaction"))
	}
	defer tx.Rollback(c)

	var article *models.Article
	strategy := xp.CreateStrategy
	if existing == nil {
		article, err = quilldata.CreateArticle(c, tx, c.CurrentUser.ID, sub, now)
	} else {
		strategy = xp.EditStrategy
		article, err = quilldata.UpdateArticle(c, tx, existing, sub, now)
	}
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	newXP, level, err := quilldata.AwardXP(c, tx, c.CurrentUser.ID, strategy, sub.Body)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if err := tx.Commit(c); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to commit article"))
	}

	// The session stays open for further edits. Images it received while
	// this submit was running are still unpublished and stay in it.
	if refs != nil {
		refs.Remove(externalized.UploadedIDs...)
	}

	c.Logger.Info().
		Str("article", article.ID).
		Bool("created", existing == nil).
		Int("uploaded", len(externalized.Uploaded)).
		Int("xp", newXP).
		Msg("Article submitted")

	if existing == nil && article.Discord {
		discord.Announce(c, discord.Announcement{
			Title:       article.Title,
			Url:         quillurl.BuildArticle(article.ID),
			Excerpt:     parsing.Excerpt(article.Body, excerptLength),
			AuthorName:  c.CurrentUser.BestName(),
			AuthorUrl:   "https://github.com/" + c.CurrentUser.Login,
			AvatarUrl:   c.CurrentUser.AvatarUrl,
			PublishedAt: article.CreatedAt,
		})
	}

	type submitJson struct {
		ID    string `json:"id"`
		Url   string `json:"url"`
		XP    int    `json:"xp"`
		Level int    `json:"level"`
	}
	var res ResponseData
	if existing == nil {
		res.StatusCode = http.StatusCreated
	}
	res.WriteJson(submitJson{
		ID:    article.ID,
		Url:   quillurl.BuildArticle(article.ID),
		XP:    newXP,
		Level: level,
	})
	return res
}
