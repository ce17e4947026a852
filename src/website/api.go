package website

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/quilldata"
)

func APITags(c *RequestContext) ResponseData {
	tags, err := quilldata.FetchTags(c, c.Site.Conn)
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	type tagJson struct {
		Name     string `json:"name"`
		Articles int64  `json:"articles"`
	}
	result := []tagJson{}
	for _, tag := range tags {
		result = append(result, tagJson{Name: tag.Name, Articles: tag.Articles})
	}

	var res ResponseData
	res.WriteJson(result)
	return res
}

func APISeries(c *RequestContext) ResponseData {
	seriesID, err := strconv.Atoi(c.PathParams["seriesid"])
	if err != nil {
		return FourOhFour(c)
	}

	series, err := quilldata.FetchSeries(c, c.Site.Conn, seriesID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	type seriesArticleJson struct {
		ArticleID string `json:"article_id"`
		Ord       int    `json:"ord"`
		Title     string `json:"title"`
	}
	type seriesJson struct {
		ID          int                 `json:"id"`
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Articles    []seriesArticleJson `json:"articles"`
	}
	result := seriesJson{
		ID:          series.ID,
		Title:       series.Title,
		Description: series.Description,
		Articles:    []seriesArticleJson{},
	}
	for _, a := range series.Articles {
		result.Articles = append(result.Articles, seriesArticleJson{
			ArticleID: a.ArticleID,
			Ord:       a.Ord,
			Title:     a.Title,
		})
	}

	var res ResponseData
	res.WriteJson(result)
	return res
}

func APIUser(c *RequestContext) ResponseData {
	userID, err := strconv.ParseInt(c.PathParams["userid"], 10, 64)
	if err != nil {
		return FourOhFour(c)
	}

	user, err := quilldata.FetchUser(c, c.Site.Conn, userID)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return FourOhFour(c)
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	var res ResponseData
	res.WriteJson(userToJson(user))
	return res
}

// The signed-in user, plus the CSRF token their client must send back.
func APIMe(c *RequestContext) ResponseData {
	type meJson struct {
		userJson
		CSRFToken string `json:"csrf_token"`
	}

	var res ResponseData
	res.WriteJson(meJson{
		userJson:  userToJson(c.CurrentUser),
		CSRFToken: c.CurrentSession.CSRFToken,
	})
	return res
}
