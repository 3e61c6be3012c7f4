// internal/model/campaign.go
package model

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignPending    CampaignStatus = "pending"
	CampaignProcessing CampaignStatus = "processing"
	CampaignCompleted  CampaignStatus = "completed"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignPending, CampaignProcessing, CampaignCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal status change.
// A campaign never re-enters pending; a completed campaign may be
// re-dispatched, which moves it back to processing.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	switch s {
	case CampaignPending:
		return next == CampaignProcessing
	case CampaignProcessing:
		return next == CampaignCompleted
	case CampaignCompleted:
		return next == CampaignProcessing
	}
	return false
}

type Campaign struct {
	ID          int            `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Status      CampaignStatus `db:"status" json:"status"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
