package normalize

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/IdanRossman/jiranimo/internal/model"
)

// Page is one normalized response from the tracker.
type Page struct {
	Issues        []*model.Issue        `json:"issues"`
	Attention     []model.AttentionItem `json:"issues_requiring_attention"`
	IsLast        bool                  `json:"is_last"`
	NextPageToken string                `json:"next_page_token,omitempty"`
	Rejected      []*RecordError        `json:"-"`
}

// HasMore reports whether the tracker has further pages.
func (p *Page) HasMore() bool {
	return !p.IsLast
}

// records is the number of raw records p was built from.
func (p *Page) records() int {
	return len(p.Issues) + len(p.Rejected)
}

// Append adds next, a later page of the same listing, to p. Rejected
// indexes of next are shifted past the records already in p. An issue whose
// key p already holds is rejected with ErrDuplicateKey at its position in
// the combined listing; the first occurrence wins. next is not modified.
func (p *Page) Append(next *Page) {
	offset := p.records()

	rejectedAt := make(map[int]bool, len(next.Rejected))
	added := make([]*RecordError, 0, len(next.Rejected))
	for _, re := range next.Rejected {
		rejectedAt[re.Index] = true
		shifted := *re
		shifted.Index += offset
		added = append(added, &shifted)
	}

	seen := make(map[string]struct{}, len(p.Issues)+len(next.Issues))
	for _, issue := range p.Issues {
		seen[issue.Key] = struct{}{}
	}
	// Issues fill the record positions not taken by rejected records.
	pos := 0
	for _, issue := range next.Issues {
		for rejectedAt[pos] {
			pos++
		}
		if _, dup := seen[issue.Key]; dup {
			added = append(added, &RecordError{Index: offset + pos, Key: issue.Key, Err: ErrDuplicateKey})
		} else {
			seen[issue.Key] = struct{}{}
			p.Issues = append(p.Issues, issue)
		}
		pos++
	}
	slices.SortStableFunc(added, func(a, b *RecordError) int { return cmp.Compare(a.Index, b.Index) })
	p.Rejected = append(p.Rejected, added...)

	flagged := make(map[string]struct{}, len(p.Attention))
	for _, a := range p.Attention {
		flagged[a.IssueKey] = struct{}{}
	}
	for _, a := range next.Attention {
		if _, ok := flagged[a.IssueKey]; ok {
			continue
		}
		flagged[a.IssueKey] = struct{}{}
		p.Attention = append(p.Attention, a)
	}

	p.IsLast = next.IsLast
	p.NextPageToken = next.NextPageToken
}

// RecordError describes a single record that could not be normalized.
type RecordError struct {
	Index int    // position in the issues array
	Key   string // issue key, when it could be read
	Err   error
}

func (e *RecordError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("issue %d (%s): %v", e.Index, e.Key, e.Err)
	}
	return fmt.Sprintf("issue %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// envelope is the wire shape of the tracker's issue listing.
type envelope struct {
	Issues        []json.RawMessage     `json:"issues"`
	Attention     []model.AttentionItem `json:"issuesRequiringAttention"`
	IsLast        *bool                 `json:"isLast"`
	NextPageToken string                `json:"nextPageToken"`
}

// Response decodes a tracker envelope and normalizes every record in it.
//
// Records are normalized independently: a malformed record is reported in
// Page.Rejected and the rest of the collection is still returned. A record
// whose key repeats an earlier one is rejected as well. Only an envelope that
// cannot be decoded at all is an error. A missing isLast flag means last page.
func Response(data []byte) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	page := &Page{
		Issues:        make([]*model.Issue, 0, len(env.Issues)),
		Attention:     env.Attention,
		IsLast:        true,
		NextPageToken: env.NextPageToken,
	}
	if env.IsLast != nil {
		page.IsLast = *env.IsLast
	}
	if page.Attention == nil {
		page.Attention = []model.AttentionItem{}
	}

	seen := make(map[string]struct{}, len(env.Issues))
	for i, rec := range env.Issues {
		var raw RawIssue
		if err := json.Unmarshal(rec, &raw); err != nil {
			page.Rejected = append(page.Rejected, &RecordError{Index: i, Err: fmt.Errorf("decode issue: %w", err)})
			continue
		}
		issue, err := Normalize(&raw)
		if err != nil {
			page.Rejected = append(page.Rejected, &RecordError{Index: i, Key: raw.Key, Err: err})
			continue
		}
		if _, dup := seen[issue.Key]; dup {
			page.Rejected = append(page.Rejected, &RecordError{Index: i, Key: issue.Key, Err: ErrDuplicateKey})
			continue
		}
		seen[issue.Key] = struct{}{}
		page.Issues = append(page.Issues, issue)
	}
	return page, nil
}
