// Package normalize converts flat tracker payloads into canonical issues.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawIssue is the flat issue record served by the tracker backend.
// Every field except ID and Key is optional.
type RawIssue struct {
	ID             FlexString      `json:"id"`
	Key            string          `json:"key"`
	Summary        string          `json:"summary"`
	Description    json.RawMessage `json:"description"`
	ProjectKey     string          `json:"projectKey"`
	ProjectName    string          `json:"projectName"`
	ProjectAvatar  string          `json:"projectAvatar"`
	TypeName       string          `json:"typeName"`
	StatusName     string          `json:"statusName"`
	AssigneeName   string          `json:"assigneeName"`
	AssigneeAvatar string          `json:"assigneeAvatar"`
	ReporterName   string          `json:"reporterName"`
	ReporterAvatar string          `json:"reporterAvatar"`
	PriorityName   string          `json:"priorityName"`
	ParentKey      string          `json:"parentKey"`
	ParentName     string          `json:"parentName"`
	Labels         []string        `json:"labels"`
	CreatedDate    string          `json:"createdDate"`
	ModifiedDate   string          `json:"modifiedDate"`
	CustomFields   map[string]any  `json:"customFields"`
}

// FlexString accepts a JSON string or number; trackers are inconsistent about
// whether numeric identifiers are quoted.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the trimmed string value.
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}
