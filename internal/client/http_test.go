package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/IdanRossman/jiranimo/internal/normalize"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	rawPath     string // URL-encoded path (for testing PathEscape)
	query       string
	body        string
	contentType string
	auth        string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler, token string) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/jira/", token)
}

func TestHTTPClient_ImplementsTracker(t *testing.T) {
	var _ Tracker = (*HTTPClient)(nil)
}

func TestHTTPClient_MyIssues(t *testing.T) {
	h := &testHandler{responseBody: `{
		"issues": [
			{"id": "10006", "key": "DP-6", "summary": "Login", "statusName": "Code Review", "priorityName": "High"},
			{"summary": "broken"}
		],
		"issuesRequiringAttention": [],
		"isLast": true
	}`}
	c := newTestClient(t, h, "secret")

	page, err := c.MyIssues(context.Background(), "")
	if err != nil {
		t.Fatalf("MyIssues: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/jira/issues/assigned-to-me" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.auth != "Bearer secret" {
		t.Errorf("Authorization = %q", h.auth)
	}
	if len(page.Issues) != 1 || page.Issues[0].Key != "DP-6" {
		t.Fatalf("issues = %+v", page.Issues)
	}
	if len(page.Rejected) != 1 {
		t.Errorf("rejected = %d, want 1", len(page.Rejected))
	}
	if page.HasMore() {
		t.Error("HasMore = true, want false")
	}
}

func TestHTTPClient_MyIssues_PageToken(t *testing.T) {
	h := &testHandler{responseBody: `{"issues": []}`}
	c := newTestClient(t, h, "")
	if _, err := c.MyIssues(context.Background(), "abc 123"); err != nil {
		t.Fatalf("MyIssues: %v", err)
	}
	if h.query != "nextPageToken=abc+123" {
		t.Errorf("query = %q", h.query)
	}
	if h.auth != "" {
		t.Errorf("Authorization should be empty, got %q", h.auth)
	}
}

func TestHTTPClient_AllIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jira/issues/assigned-to-me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("nextPageToken") == "" {
			_, _ = w.Write([]byte(`{"issues":[{"id":"1","key":"DP-1"},{"id":"x"}],"isLast":false,"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"issues":[{"id":"2","key":"DP-2"},{"key":"DP-9"}],"isLast":true}`))
	})
	c := newTestClient(t, mux, "")

	page, err := c.AllIssues(context.Background())
	if err != nil {
		t.Fatalf("AllIssues: %v", err)
	}
	if len(page.Issues) != 2 || page.Issues[1].Key != "DP-2" {
		t.Fatalf("issues = %d", len(page.Issues))
	}
	if !page.IsLast || page.NextPageToken != "" {
		t.Errorf("IsLast = %v, token = %q", page.IsLast, page.NextPageToken)
	}
	if len(page.Rejected) != 2 || page.Rejected[1].Index != 3 {
		t.Errorf("rejected = %+v", page.Rejected)
	}
}

func TestHTTPClient_AllIssues_DuplicateAcrossPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jira/issues/assigned-to-me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("nextPageToken") == "" {
			_, _ = w.Write([]byte(`{"issues":[{"id":"1","key":"DP-1"},{"id":"2","key":"DP-2"}],"isLast":false,"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"issues":[{"id":"1","key":"DP-1"},{"id":"3","key":"DP-3"}],"isLast":true}`))
	})
	c := newTestClient(t, mux, "")

	page, err := c.AllIssues(context.Background())
	if err != nil {
		t.Fatalf("AllIssues: %v", err)
	}
	var keys []string
	for _, iss := range page.Issues {
		keys = append(keys, iss.Key)
	}
	if strings.Join(keys, ",") != "DP-1,DP-2,DP-3" {
		t.Errorf("issues = %v, want DP-1,DP-2,DP-3", keys)
	}
	if len(page.Rejected) != 1 {
		t.Fatalf("rejected = %+v, want 1", page.Rejected)
	}
	re := page.Rejected[0]
	if !errors.Is(re, normalize.ErrDuplicateKey) || re.Key != "DP-1" || re.Index != 2 {
		t.Errorf("rejected = %+v, want duplicate DP-1 at index 2", re)
	}
}

func TestHTTPClient_CurrentUser(t *testing.T) {
	h := &testHandler{responseBody: `{"accountId":"acc-1","displayName":"Dana","emailAddress":"dana@example.com","avatarUrl":"http://a/x.png","active":true}`}
	c := newTestClient(t, h, "")
	u, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if h.path != "/jira/user/me" {
		t.Errorf("path = %q", h.path)
	}
	if u.AccountID != "acc-1" || u.DisplayName != "Dana" || u.Email != "dana@example.com" || !u.Active {
		t.Errorf("user = %+v", u)
	}
}

func TestHTTPClient_UpdateIssueStatus(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNoContent}
	c := newTestClient(t, h, "")
	if err := c.UpdateIssueStatus(context.Background(), "DP-6", "Done"); err != nil {
		t.Fatalf("UpdateIssueStatus: %v", err)
	}
	if h.method != http.MethodPut || h.path != "/jira/issues/DP-6/status" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.contentType != "application/json" || h.body != `{"status":"Done"}` {
		t.Errorf("body = %q (%s)", h.body, h.contentType)
	}
}

func TestHTTPClient_UpdateIssueStatus_EscapesKey(t *testing.T) {
	h := &testHandler{responseBody: `{"ok":true}`}
	c := newTestClient(t, h, "")
	if err := c.UpdateIssueStatus(context.Background(), "DP/6", "Done"); err != nil {
		t.Fatalf("UpdateIssueStatus: %v", err)
	}
	if h.rawPath != "/jira/issues/DP%2F6/status" {
		t.Errorf("rawPath = %q", h.rawPath)
	}
}

func TestHTTPClient_Errors(t *testing.T) {
	for _, tc := range []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
	}{
		{"ErrorField", http.StatusBadRequest, `{"error":"invalid transition"}`, "invalid transition"},
		{"MessageField", http.StatusForbidden, `{"message":"not allowed"}`, "not allowed"},
		{"PlainText", http.StatusBadGateway, "upstream down\n", "upstream down"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{statusCode: tc.statusCode, responseBody: tc.body}
			c := newTestClient(t, h, "")
			err := c.UpdateIssueStatus(context.Background(), "DP-6", "Done")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tc.statusCode || apiErr.Message != tc.wantMsg {
				t.Errorf("APIError = %+v", apiErr)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestHTTPClient_BadEnvelope(t *testing.T) {
	h := &testHandler{responseBody: `not json`}
	c := newTestClient(t, h, "")
	if _, err := c.MyIssues(context.Background(), ""); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c := newTestClient(t, h, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CurrentUser(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
