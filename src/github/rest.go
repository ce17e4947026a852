/*
Package github talks to the GitHub REST API: the OAuth sign-in flow, the
organization membership check that gates it, and the contents API used to
store article images.
*/
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
)

const (
	UserAgent  = "Quill (https://github.com/quillpress/quill)"
	APIVersion = "2022-11-28"
)

// Variables so tests can point them at an httptest server.
var (
	BaseUrl      = "https://api.github.com"
	OAuthBaseUrl = "https://github.com/login/oauth"
	RawBaseUrl   = "https://raw.githubusercontent.com"
)

var NotFound = errors.New("not found")

var httpClient = &http.Client{}

func makeRequest(ctx context.Context, method string, path string, token string, body []byte) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, BaseUrl+path, bodyReader)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	req.Header.Set("User-Agent", UserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

type errorResponse struct {
	Message string `json:"message"`
}

// Logs the failed response and returns an error carrying GitHub's own
// explanation, so callers can surface it.
func responseError(ctx context.Context, name string, res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))

	logging.ExtractLogger(ctx).Error().
		Str("name", name).
		Int("status", res.StatusCode).
		Str("body", string(body)).
		Msg("GitHub returned an error")

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return oops.New(nil, "GitHub %s failed (%d): %s", name, res.StatusCode, parsed.Message)
	}
	return oops.New(nil, "GitHub %s failed with status %d", name, res.StatusCode)
}

func decode(res *http.Response, dest any) error {
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return oops.New(err, "failed to unmarshal GitHub response")
	}
	return nil
}

// Where to send a visitor to sign in. state is echoed back to the callback.
func AuthorizeUrl(state string, redirectUri string) string {
	q := url.Values{}
	q.Set("client_id", config.Config.GitHub.ClientID)
	q.Set("redirect_uri", redirectUri)
	q.Set("scope", "read:user read:org")
	q.Set("state", state)
	q.Set("allow_signup", "false")
	return OAuthBaseUrl + "/authorize?" + q.Encode()
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func ExchangeOAuthCode(ctx context.Context, code string, redirectUri string) (*AccessTokenResponse, error) {
	const name = "OAuth exchange"

	body := url.Values{}
	body.Set("client_id", config.Config.GitHub.ClientID)
	body.Set("client_secret", config.Config.GitHub.ClientSecret)
	body.Set("code", code)
	body.Set("redirect_uri", redirectUri)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, OAuthBaseUrl+"/access_token", strings.NewReader(body.Encode()))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, oops.New(err, "failed to exchange GitHub OAuth code")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, responseError(ctx, name, res)
	}

	var result AccessTokenResponse
	if err := decode(res, &result); err != nil {
		return nil, err
	}
	// GitHub reports a bad code with a 200 and an error field.
	if result.Error != "" {
		return nil, oops.New(nil, "GitHub OAuth exchange failed: %s (%s)", result.Error, result.ErrorDescription)
	}
	if result.AccessToken == "" {
		return nil, oops.New(nil, "GitHub OAuth exchange returned no token")
	}
	return &result, nil
}

type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

func GetCurrentUser(ctx context.Context, token string) (*User, error) {
	const name = "Get Current User"

	res, err := httpClient.Do(makeRequest(ctx, http.MethodGet, "/user", token, nil))
	if err != nil {
		return nil, oops.New(err, "failed to fetch GitHub user")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, responseError(ctx, name, res)
	}

	var user User
	if err := decode(res, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type OrgMembership struct {
	State string `json:"state"`
	Role  string `json:"role"`
}

// Returns NotFound if the user does not belong to the organization.
func GetOrgMembership(ctx context.Context, token string, org string) (*OrgMembership, error) {
	const name = "Get Org Membership"

	path := fmt.Sprintf("/user/memberships/orgs/%s", url.PathEscape(org))
	res, err := httpClient.Do(makeRequest(ctx, http.MethodGet, path, token, nil))
	if err != nil {
		return nil, oops.New(err, "failed to fetch GitHub org membership")
	}
	defer res.Body.Close()

	// 403 shows up when the org restricts third-party apps or the token
	// lacks read:org. Either way the user cannot prove membership.
	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusForbidden {
		return nil, NotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, responseError(ctx, name, res)
	}

	var membership OrgMembership
	if err := decode(res, &membership); err != nil {
		return nil, err
	}
	return &membership, nil
}

func IsActiveOrgMember(ctx context.Context, token string, org string) (bool, error) {
	membership, err := GetOrgMembership(ctx, token, org)
	if errors.Is(err, NotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return membership.State == "active", nil
}

type PutContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	Branch  string `json:"branch,omitempty"`
}

type PutContentResponse struct {
	Content struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		Sha         string `json:"sha"`
		DownloadUrl string `json:"download_url"`
	} `json:"content"`
}

// Creates a file. Fails if the path already exists, since no sha is sent.
func PutContent(ctx context.Context, token string, owner, repo, path string, body PutContentRequest) (*PutContentResponse, error) {
	const name = "Create File"

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}

	reqPath := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(repo), path)
	res, err := httpClient.Do(makeRequest(ctx, http.MethodPut, reqPath, token, bodyBytes))
	if err != nil {
		return nil, oops.New(err, "failed to create file on GitHub")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return nil, responseError(ctx, name, res)
	}

	var result PutContentResponse
	if err := decode(res, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
