package website

import (
	"net/http"
	"regexp"

	"github.com/quillpress/quill/src/quillurl"
)

func NewWebsiteRoutes(site *Site) http.Handler {
	return buildRoutes(site, loadCommonData)
}

// loadUser resolves the current user and session. Tests swap it out to sign
// requests in without a database.
func buildRoutes(site *Site, loadUser Middleware) *Router {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			attachSite(site),
			logRequestMiddleware,
			panicCatcherMiddleware,
			logContextErrorsMiddleware,
			loadUser,
		},
	}

	signedIn := routes.WithMiddleware(needsAuth)
	mutating := routes.WithMiddleware(needsAuth, csrfMiddleware)
	submitting := mutating.WithMiddleware(oneSubmitAtATime)

	routes.GET(quillurl.RegexHomepage, Homepage)
	routes.GET(quillurl.RegexArticle, ArticlePage)

	routes.GET(quillurl.RegexLogin, Login)
	routes.GET(quillurl.RegexGitHubCallback, GitHubCallback)
	mutating.POST(quillurl.RegexLogout, Logout)

	routes.GET(quillurl.RegexAPIArticles, APIArticles)
	routes.GET(quillurl.RegexAPIArticle, APIArticle)
	routes.GET(quillurl.RegexAPITags, APITags)
	routes.GET(quillurl.RegexAPISeries, APISeries)
	routes.GET(quillurl.RegexAPIUser, APIUser)
	signedIn.GET(quillurl.RegexAPIMe, APIMe)

	submitting.POST(quillurl.RegexAPIArticles, APIArticleCreate)
	submitting.POST(quillurl.RegexAPIArticleEdit, APIArticleEdit)

	mutating.POST(quillurl.RegexAPIEditSessions, APIEditSessionCreate)
	mutating.POST(quillurl.RegexAPIEditSessionImages, APIEditSessionImage)
	mutating.DELETE(quillurl.RegexAPIEditSession, APIEditSessionDiscard)

	mutating.POST(quillurl.RegexAPIPreview, APIPreview)
	// Browsers can't set headers on a websocket handshake, so the socket
	// relies on the session cookie and an Origin check instead of CSRF.
	signedIn.GET(quillurl.RegexAPIPreviewSocket, APIPreviewSocket)

	routes.AnyMethod(regexp.MustCompile("^"), FourOhFour)

	return router
}
