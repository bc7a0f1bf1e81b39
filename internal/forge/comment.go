package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// CommentKind selects the formatted body rendered by FormatComment.
type CommentKind string

const (
	CommentBuilding CommentKind = "building"
	CommentSuccess  CommentKind = "success"
	CommentFailure  CommentKind = "failure"
)

// FormatComment renders the standard preview-status comment body. url is
// only used for CommentSuccess.
func FormatComment(kind CommentKind, url string) string {
	switch kind {
	case CommentBuilding:
		return "🔨 Building preview environment for this pull request…"
	case CommentSuccess:
		return fmt.Sprintf("✅ Preview environment is ready: %s", url)
	case CommentFailure:
		return "❌ Preview environment build failed. Check the logs and push a new commit to retry."
	default:
		return ""
	}
}

type commentPayload struct {
	Body string `json:"body"`
}

type commentResponse struct {
	ID int64 `json:"id"`
}

// retryBackoff bounds PR-comment delivery to 3 attempts capped at roughly
// 7 seconds total: comments are best-effort and must never block or fail
// a deploy.
func retryBackoff() retry.Backoff {
	b := retry.NewExponential(250 * time.Millisecond)
	b = retry.WithMaxRetries(2, b)
	return retry.WithMaxDuration(7*time.Second, b)
}

// PostComment creates a new issue comment on the pull request and returns
// its id.
func (c *GitHubClient) PostComment(owner, repo string, prNumber int, body string) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, prNumber)
	var result commentResponse
	err := retry.Do(context.Background(), retryBackoff(), func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, url, commentPayload{Body: body}, &result)
	})
	if err != nil {
		return 0, fmt.Errorf("forge: post comment: %w", err)
	}
	return result.ID, nil
}

// UpdateComment replaces the body of an existing issue comment.
func (c *GitHubClient) UpdateComment(owner, repo string, commentID int64, body string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.baseURL, owner, repo, commentID)
	err := retry.Do(context.Background(), retryBackoff(), func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPatch, url, commentPayload{Body: body}, nil)
	})
	if err != nil {
		return fmt.Errorf("forge: update comment: %w", err)
	}
	return nil
}

func (c *GitHubClient) doJSON(ctx context.Context, method, url string, payload any, out any) error {
	var bodyReader io.Reader
	if method != http.MethodGet && payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("forge: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("forge: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return retry.RetryableError(fmt.Errorf("forge: %s %s returned %d", method, url, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("forge: %s %s returned %d", method, url, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
