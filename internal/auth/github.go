package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/spacetime/internal/apperror"
)

// GitHubUser is the slice of GitHub's /user response this service cares
// about. GitHub returns a much larger object; we only decode what we
// persist.
//
// Name is a pointer because GitHub returns null for accounts that never
// set a display name — validate() substitutes the login handle.
type GitHubUser struct {
	ID        int64   `json:"id"`         // GitHub's numeric user ID — stable, never reused
	Name      *string `json:"name"`       // display name, may be null
	Login     string  `json:"login"`      // GitHub username
	AvatarURL string  `json:"avatar_url"` // profile picture URL
}

// DisplayName returns the display name, falling back to the login handle
// when the user never set one.
func (u *GitHubUser) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Login
}

// GitHubProvider performs the server side of the GitHub Authorization
// Code flow: trade a single-use code for an access token, then fetch the
// profile with that token. One round trip each, no retries — a caller
// that wants resilience retries the whole exchange with a fresh code.
type GitHubProvider struct {
	config     *oauth2.Config
	profileURL string
}

const githubProfileURL = "https://api.github.com/user"

// NewGitHubProvider creates a provider from the pre-shared OAuth app
// credentials (registered at github.com/settings/developers).
func NewGitHubProvider(clientID, clientSecret string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		profileURL: githubProfileURL,
	}
}

// newGitHubProviderForTest points both endpoints at a test server so the
// exchange can run against net/http/httptest.
func newGitHubProviderForTest(tokenURL, profileURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		profileURL: profileURL,
	}
}

// Exchange trades an authorization code for a validated GitHub profile.
//
// Error mapping (see internal/apperror):
//   - code rejected / token endpoint unreachable → ErrUpstream ("exchanging...")
//   - profile fetch failed or non-200            → ErrUpstream ("fetching profile...")
//   - profile shape wrong (id, login, avatar)    → ErrValidation
//
// The provider payload is untrusted input: we validate it into a typed
// value here so the rest of the system never re-checks it.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	// Step 1: code → OAuth access token (server-to-server, uses the
	// client secret; the token never reaches the browser).
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Upstream("exchanging authorization code"), err)
	}

	// Step 2: fetch the profile. config.Client returns an *http.Client
	// that attaches "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building profile request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Upstream("fetching GitHub profile"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d",
			apperror.Upstream("fetching GitHub profile"), resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("%w: %v",
			apperror.ValidationFailed("profile", "GitHub profile is not valid JSON"), err)
	}

	if err := ghUser.validate(); err != nil {
		return nil, err
	}

	return &ghUser, nil
}

// validate enforces the profile contract: numeric id, login handle, and
// a well-formed absolute avatar URL.
func (u *GitHubUser) validate() error {
	if u.ID == 0 {
		return apperror.ValidationFailed("id", "GitHub profile has no user ID")
	}
	if u.Login == "" {
		return apperror.ValidationFailed("login", "GitHub profile has no login")
	}
	parsed, err := url.Parse(u.AvatarURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return apperror.ValidationFailed("avatar_url", "avatar URL must be an absolute URL")
	}
	return nil
}
