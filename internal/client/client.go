// Package client talks to the tracker backend that serves the current user's
// issues and accepts status changes.
package client

import (
	"context"

	"github.com/IdanRossman/jiranimo/internal/model"
	"github.com/IdanRossman/jiranimo/internal/normalize"
)

// Tracker is the interface the dashboard and CLI use to reach the tracker
// backend. It is implemented by HTTPClient.
type Tracker interface {
	// MyIssues fetches one page of issues assigned to the current user.
	// An empty pageToken requests the first page.
	MyIssues(ctx context.Context, pageToken string) (*normalize.Page, error)

	// CurrentUser returns the authenticated user.
	CurrentUser(ctx context.Context) (*model.User, error)

	// UpdateIssueStatus moves an issue to the named status.
	UpdateIssueStatus(ctx context.Context, key, status string) error

	// Lifecycle
	Close() error
}

// remoteUser is the wire shape of GET /user/me.
type remoteUser struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	AvatarURL    string `json:"avatarUrl"`
	Active       bool   `json:"active"`
}

func (u remoteUser) toModel() *model.User {
	return &model.User{
		AccountID:   u.AccountID,
		DisplayName: u.DisplayName,
		Email:       u.EmailAddress,
		AvatarURL:   u.AvatarURL,
		Active:      u.Active,
	}
}

// statusUpdate is the body of PUT /issues/{key}/status.
type statusUpdate struct {
	Status string `json:"status"`
}
