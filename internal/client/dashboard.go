package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/filter"
	"github.com/IdanRossman/jiranimo/internal/group"
	"github.com/IdanRossman/jiranimo/internal/kanban"
	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/transition"
)

// DashboardClient talks to a running jiranimo server's /v1 API.
type DashboardClient struct {
	*HTTPClient
	stream *http.Client // no overall timeout; streams stay open
}

// NewDashboardClient creates a client for the dashboard server at baseURL
// (e.g. "http://localhost:8080").
func NewDashboardClient(baseURL, token string) *DashboardClient {
	return &DashboardClient{
		HTTPClient: NewHTTPClient(baseURL, token),
		stream:     &http.Client{},
	}
}

// Health is the body of GET /v1/health.
type Health struct {
	Status   string    `json:"status"`
	LoadedAt time.Time `json:"loaded_at"`
}

// IssueList is the body of GET /v1/issues.
type IssueList struct {
	Issues  []*model.Issue `json:"issues"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

// BoardView is the body of GET /v1/board.
type BoardView struct {
	Columns  []*kanban.Column     `json:"columns"`
	Projects []kanban.ProjectChip `json:"projects"`
	Pending  []string             `json:"pending"`
}

// EpicGroup is one epic of a GET /v1/groups?by=epic-type answer.
type EpicGroup struct {
	Key   string         `json:"key"`
	Count int            `json:"count"`
	Types []*group.Group `json:"types"`
}

// MoveResult is the transition returned by POST /v1/board/moves.
type MoveResult struct {
	events.Transition
	State transition.State `json:"state"`
}

// ReloadResult is the body of POST /v1/reload.
type ReloadResult struct {
	Count    int  `json:"count"`
	Rejected int  `json:"rejected"`
	HasMore  bool `json:"has_more"`
}

// FilterResult is the body of PUT /v1/filter.
type FilterResult struct {
	Filter  model.FilterState `json:"filter"`
	Active  bool              `json:"active"`
	Matched int               `json:"matched"`
}

// Rejected is a record the server's normalizer refused.
type Rejected struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

// AttentionView is the body of GET /v1/attention.
type AttentionView struct {
	Attention []model.AttentionItem `json:"attention"`
	Rejected  []Rejected            `json:"rejected"`
}

// StreamEvent is one server-sent event.
type StreamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// Health reports server status.
func (c *DashboardClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Issues lists issues. A zero state returns the server's filtered view;
// otherwise state is applied to the full collection.
func (c *DashboardClient) Issues(ctx context.Context, state model.FilterState) (*IssueList, error) {
	var out IssueList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/issues"+filterQuery(state), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Issue fetches a single issue.
func (c *DashboardClient) Issue(ctx context.Context, key string) (*model.Issue, error) {
	var out model.Issue
	if err := c.doJSON(ctx, http.MethodGet, "/v1/issues/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssueEvents returns the journal entries of one issue.
func (c *DashboardClient) IssueEvents(ctx context.Context, key string) ([]*model.Event, error) {
	var out []*model.Event
	if err := c.doJSON(ctx, http.MethodGet, "/v1/issues/"+url.PathEscape(key)+"/events", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events returns the latest limit journal entries, oldest first.
func (c *DashboardClient) Events(ctx context.Context, limit int) ([]*model.Event, error) {
	var out []*model.Event
	path := "/v1/events?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter returns the server's active filter.
func (c *DashboardClient) Filter(ctx context.Context) (model.FilterState, error) {
	var out model.FilterState
	err := c.doJSON(ctx, http.MethodGet, "/v1/filter", nil, &out)
	return out, err
}

// SetFilter replaces the server's filter.
func (c *DashboardClient) SetFilter(ctx context.Context, state model.FilterState) (*FilterResult, error) {
	var out FilterResult
	if err := c.doJSON(ctx, http.MethodPut, "/v1/filter", state, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Facets returns the filter options of the visible issues.
func (c *DashboardClient) Facets(ctx context.Context) (filter.Facets, error) {
	var out filter.Facets
	err := c.doJSON(ctx, http.MethodGet, "/v1/facets", nil, &out)
	return out, err
}

// Groups groups the visible issues by a flat dimension.
func (c *DashboardClient) Groups(ctx context.Context, dim group.Dimension) ([]*group.Group, error) {
	var out struct {
		Groups []*group.Group `json:"groups"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/groups?by="+url.QueryEscape(string(dim)), nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// Nested groups the visible issues by epic, then type.
func (c *DashboardClient) Nested(ctx context.Context) ([]*EpicGroup, error) {
	var out struct {
		Groups []*EpicGroup `json:"groups"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/groups?by="+string(group.EpicAndType), nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// Summary returns issue counts.
func (c *DashboardClient) Summary(ctx context.Context) (*group.Summary, error) {
	var out group.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/v1/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Board returns the kanban board.
func (c *DashboardClient) Board(ctx context.Context) (*BoardView, error) {
	var out BoardView
	if err := c.doJSON(ctx, http.MethodGet, "/v1/board", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Move drops a card. With wait the call returns once the remote update has
// settled; a reverted move is not an error, its outcome is in the result.
func (c *DashboardClient) Move(ctx context.Context, drop transition.Drop, wait bool) (*MoveResult, error) {
	path := "/v1/board/moves"
	if wait {
		path += "?wait=true"
	}
	var out MoveResult
	if err := c.doJSON(ctx, http.MethodPost, path, drop, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Attention returns the flagged issues and the rejected records of the last
// load.
func (c *DashboardClient) Attention(ctx context.Context) (*AttentionView, error) {
	var out AttentionView
	if err := c.doJSON(ctx, http.MethodGet, "/v1/attention", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reload asks the server to refetch issues from the tracker.
func (c *DashboardClient) Reload(ctx context.Context) (*ReloadResult, error) {
	var out ReloadResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reload", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stream reads GET /v1/events/stream and calls fn for each event until ctx
// is done, the server closes the stream, or fn returns an error.
func (c *DashboardClient) Stream(ctx context.Context, topics []string, fn func(StreamEvent) error) error {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		path += "?" + url.Values{"topics": {strings.Join(topics, ",")}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var ev StreamEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Topic != "" || ev.Data != nil {
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev = StreamEvent{}
		case strings.HasPrefix(line, ":"):
			// keepalive
		case strings.HasPrefix(line, "id:"):
			ev.ID, _ = strconv.ParseUint(strings.TrimSpace(line[3:]), 10, 64)
		case strings.HasPrefix(line, "event:"):
			ev.Topic = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			ev.Data = append(ev.Data, strings.TrimPrefix(line[5:], " ")...)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// filterQuery encodes state as /v1/issues query parameters.
func filterQuery(state model.FilterState) string {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", state.Search)
	set("priority", state.Priority)
	set("type", state.Type)
	set("types", strings.Join(state.Types, ","))
	set("labels", strings.Join(state.Labels, ","))
	set("projects", strings.Join(state.Projects, ","))
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
