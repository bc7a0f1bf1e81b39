package forge

import (
	"context"
	"fmt"
	"net/http"
)

type pullRequestResponse struct {
	State  string `json:"state"`
	Merged bool   `json:"merged"`
}

// CheckPRStatus reports whether the pull request is open, closed, or
// merged. A single attempt is made — callers (the reconciler) tolerate a
// failed check by treating the PR as still open; TTL expiry still applies.
func (c *GitHubClient) CheckPRStatus(owner, repo string, prNumber int) (PRStatus, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, prNumber)
	var resp pullRequestResponse
	if err := c.doJSON(context.Background(), http.MethodGet, url, nil, &resp); err != nil {
		return PRStatus{}, fmt.Errorf("forge: check PR status: %w", err)
	}

	return PRStatus{
		Open:   resp.State == "open",
		Closed: resp.State == "closed",
		Merged: resp.Merged,
	}, nil
}
