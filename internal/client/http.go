package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/normalize"
)

// DefaultTimeout bounds each request unless the caller's context is shorter.
const DefaultTimeout = 30 * time.Second

// HTTPClient implements Tracker over the backend's HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:3000/jira"). When token is non-empty, an
// Authorization header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// MyIssues fetches and normalizes a page of the current user's issues.
func (c *HTTPClient) MyIssues(ctx context.Context, pageToken string) (*normalize.Page, error) {
	path := "/issues/assigned-to-me"
	if pageToken != "" {
		path += "?" + url.Values{"nextPageToken": {pageToken}}.Encode()
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	page, err := normalize.Response(data)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// AllIssues follows page tokens until the last page and joins the pages
// with Page.Append, so a key repeated on a later page is rejected rather
// than loaded twice.
func (c *HTTPClient) AllIssues(ctx context.Context) (*normalize.Page, error) {
	all, err := c.MyIssues(ctx, "")
	if err != nil {
		return nil, err
	}
	for !all.IsLast && all.NextPageToken != "" {
		next, err := c.MyIssues(ctx, all.NextPageToken)
		if err != nil {
			return nil, err
		}
		all.Append(next)
	}
	return all, nil
}

// CurrentUser fetches the authenticated user.
func (c *HTTPClient) CurrentUser(ctx context.Context) (*model.User, error) {
	var u remoteUser
	if err := c.doJSON(ctx, http.MethodGet, "/user/me", nil, &u); err != nil {
		return nil, err
	}
	return u.toModel(), nil
}

// UpdateIssueStatus asks the backend to move key to status.
func (c *HTTPClient) UpdateIssueStatus(ctx context.Context, key, status string) error {
	return c.doJSON(ctx, http.MethodPut, "/issues/"+url.PathEscape(key)+"/status", statusUpdate{Status: status}, nil)
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	respBody, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// do performs the request and returns the raw response body of a 2xx reply.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
			}
			if errResp.Message != "" {
				return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}
