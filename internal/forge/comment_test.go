package forge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatComment(t *testing.T) {
	if got := FormatComment(CommentBuilding, ""); !strings.Contains(got, "Building") {
		t.Errorf("CommentBuilding = %q", got)
	}
	if got := FormatComment(CommentSuccess, "https://preview.example/acme-api/pr-1/"); !strings.Contains(got, "https://preview.example/acme-api/pr-1/") {
		t.Errorf("CommentSuccess = %q, missing url", got)
	}
	if got := FormatComment(CommentFailure, ""); !strings.Contains(got, "failed") {
		t.Errorf("CommentFailure = %q", got)
	}
}

func TestFakePostAndUpdateComment(t *testing.T) {
	f := NewFake()
	id, err := f.PostComment("acme", "api", 42, "building")
	if err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if err := f.UpdateComment("acme", "api", id, "success"); err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if f.Comments[id] != "success" {
		t.Errorf("Comments[id] = %q, want success", f.Comments[id])
	}
}

func TestFakeCheckPRStatusDefaultsToOpen(t *testing.T) {
	f := NewFake()
	status, err := f.CheckPRStatus("acme", "api", 42)
	if err != nil {
		t.Fatalf("CheckPRStatus: %v", err)
	}
	if !status.Open {
		t.Errorf("status = %+v, want Open", status)
	}
}

func TestGitHubClientPostCommentRetriesOn500(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	c := New("token")
	c.baseURL = server.URL

	id, err := c.PostComment("acme", "api", 42, "body")
	if err != nil {
		t.Fatalf("PostComment: %v", err)
	}
	if id != 123 {
		t.Errorf("id = %d, want 123", id)
	}
	if attempts < 2 {
		t.Errorf("attempts = %d, want at least 2 (expected a retry)", attempts)
	}
}

func TestGitHubClientCheckPRStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state": "closed", "merged": true}`))
	}))
	defer server.Close()

	c := New("token")
	c.baseURL = server.URL

	status, err := c.CheckPRStatus("acme", "api", 42)
	if err != nil {
		t.Fatalf("CheckPRStatus: %v", err)
	}
	if !status.Closed || !status.Merged || status.Open {
		t.Errorf("status = %+v", status)
	}
}
