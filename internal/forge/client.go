// Package forge is the GitHub REST client used to comment on and query
// pull requests (spec.md §4.7). Its three operations are replaceable so
// tests can inject a fake.
package forge

import (
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client is the source-forge (GitHub) REST client.
type Client interface {
	PostComment(owner, repo string, prNumber int, body string) (int64, error)
	UpdateComment(owner, repo string, commentID int64, body string) error
	CheckPRStatus(owner, repo string, prNumber int) (PRStatus, error)
}

// PRStatus is the pull request state relevant to reconciliation.
type PRStatus struct {
	Open   bool
	Closed bool
	Merged bool
}

// GitHubClient is the production Client, backed by the GitHub REST API.
type GitHubClient struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// New returns a GitHubClient authenticated with token.
func New(token string) *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		baseURL:    defaultBaseURL,
	}
}
