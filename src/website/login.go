package website

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/github"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/quillurl"
)

/*
Sends the visitor to GitHub. The pending login's id doubles as the OAuth
state, so the callback can check that it started here and knows where to
send the visitor afterwards.
*/
func Login(c *RequestContext) ResponseData {
	destination := safeDestination(c.Req.URL.Query().Get("redirect"))
	if c.CurrentUser != nil {
		return c.Redirect(destination, http.StatusSeeOther)
	}

	pending, err := auth.CreatePendingLogin(c, c.Site.Conn, destination, c.Site.Now())
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	return c.Redirect(github.AuthorizeUrl(pending.ID, quillurl.BuildGitHubCallback()), http.StatusSeeOther)
}

/*
Finishes a GitHub sign-in. Only active members of the configured
organization get in; anyone else is turned away before a user row or
session exists for them.
*/
func GitHubCallback(c *RequestContext) ResponseData {
	query := c.Req.URL.Query()

	pending, err := auth.ConsumePendingLogin(c, c.Site.Conn, query.Get("state"), c.Site.Now())
	if err != nil {
		if errors.Is(err, auth.ErrNoPendingLogin) {
			c.Logger.Warn().Msg("GitHub OAuth state did not match a pending login - expired or forged")
			return c.RejectRequest(http.StatusForbidden, "Your sign-in attempt expired. Please try again.")
		}
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	if errCode := query.Get("error"); errCode != "" {
		if errCode == "access_denied" {
			// The user cancelled. Let them try again with the same destination.
			return c.Redirect(quillurl.BuildLogin(pending.DestinationUrl), http.StatusSeeOther)
		}
		return c.RejectRequest(http.StatusForbidden, "Failed to authenticate with GitHub.")
	}

	token, err := github.ExchangeOAuthCode(c, query.Get("code"), quillurl.BuildGitHubCallback())
	if err != nil {
		return c.ErrorResponse(http.StatusBadGateway, NewSafeError(err, "Failed to authenticate with GitHub."))
	}

	org := config.Config.GitHub.Org
	member, err := github.IsActiveOrgMember(c, token.AccessToken, org)
	if err != nil {
		return c.ErrorResponse(http.StatusBadGateway, NewSafeError(err, "Failed to check your GitHub organization membership."))
	}
	if !member {
		c.Logger.Info().Str("org", org).Msg("rejected sign-in from a non-member")
		return c.RejectRequest(http.StatusForbidden, "Only members of the "+org+" organization may sign in.")
	}

	ghUser, err := github.GetCurrentUser(c, token.AccessToken)
	if err != nil {
		return c.ErrorResponse(http.StatusBadGateway, NewSafeError(err, "Failed to fetch your GitHub profile."))
	}

	user, err := quilldata.UpsertGitHubUser(c, c.Site.Conn, quilldata.GitHubProfile{
		ID:        ghUser.ID,
		Login:     ghUser.Login,
		Name:      ghUser.Name,
		AvatarUrl: ghUser.AvatarUrl,
		Bio:       ghUser.Bio,
	}, c.Site.Now())
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}

	session, err := auth.CreateSession(c, c.Site.Conn, user.ID, c.Site.Now())
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to create session"))
	}

	c.Logger.Info().Int64("userId", user.ID).Str("login", user.Login).Msg("user signed in")
	res := c.Redirect(pending.DestinationUrl, http.StatusSeeOther)
	res.SetCookie(auth.NewSessionCookie(session))
	return res
}

func Logout(c *RequestContext) ResponseData {
	res := c.Redirect(quillurl.BuildHomepage(), http.StatusSeeOther)
	logoutUser(c, &res)
	return res
}

// Only destinations on this site are honored, so the login flow can't be
// used as an open redirect.
func safeDestination(dest string) string {
	home := quillurl.BuildHomepage()
	if dest == "" {
		return home
	}

	u, err := url.Parse(dest)
	if err != nil {
		return home
	}
	if u.Scheme == "" && u.Host == "" {
		if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(dest, "//") {
			return home
		}
		return dest
	}

	base, err := url.Parse(config.Config.BaseUrl)
	if err != nil || u.Scheme != base.Scheme || u.Host != base.Host {
		return home
	}
	return dest
}
