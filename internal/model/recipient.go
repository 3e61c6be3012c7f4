// internal/model/recipient.go
package model

import "time"

// RecipientStatus tracks one recipient through a dispatch run.
type RecipientStatus string

const (
	RecipientQueued RecipientStatus = "queued"
	RecipientSent   RecipientStatus = "sent"
	RecipientFailed RecipientStatus = "failed"
)

func (s RecipientStatus) String() string { return string(s) }

func (s RecipientStatus) IsValid() bool {
	switch s {
	case RecipientQueued, RecipientSent, RecipientFailed:
		return true
	}
	return false
}

// IsTerminal reports whether dispatch is done with this recipient.
func (s RecipientStatus) IsTerminal() bool {
	return s == RecipientSent || s == RecipientFailed
}

type Recipient struct {
	ID         int             `db:"id" json:"id"`
	CampaignID int             `db:"campaign_id" json:"campaign_id"`
	Name       string          `db:"name" json:"name"`
	Email      string          `db:"email" json:"email,omitempty"`
	Phone      string          `db:"phone" json:"phone,omitempty"`
	Status     RecipientStatus `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
