// Package notify is the port through which the dispatch engine reports
// state changes to observers. The engine depends only on the Notifier
// interface; how events reach a viewer (in-process hub, AMQP relay,
// SSE) is an implementation concern.
package notify

import (
	"github.com/relaydesk/campaign-dispatch/internal/model"
)

type Kind string

const (
	KindRecipientUpdated Kind = "recipient_updated"
	KindCampaignProgress Kind = "campaign_progress"
	KindCampaignStatus   Kind = "campaign_status"
)

// Event carries enough data to re-render the affected entity. Events
// carry no sequence number; observers rely on the engine emitting them
// strictly in order.
type Event struct {
	Kind       Kind                 `json:"kind"`
	CampaignID int                  `json:"campaign_id"`
	Recipient  *model.Recipient     `json:"recipient,omitempty"`
	Progress   *model.Progress      `json:"progress,omitempty"`
	Status     model.CampaignStatus `json:"status,omitempty"`
}

// Notifier is called by the engine after every state change. Each call
// is independently fault-tolerant from the engine's point of view: an
// error return is logged by the caller and never aborts a dispatch run.
type Notifier interface {
	RecipientUpdated(r *model.Recipient) error
	CampaignProgress(c *model.Campaign, p model.Progress) error
	CampaignStatus(c *model.Campaign, status model.CampaignStatus) error
}

func recipientEvent(r *model.Recipient) Event {
	rc := *r
	return Event{Kind: KindRecipientUpdated, CampaignID: r.CampaignID, Recipient: &rc}
}

func progressEvent(c *model.Campaign, p model.Progress) Event {
	return Event{Kind: KindCampaignProgress, CampaignID: c.ID, Progress: &p}
}

func statusEvent(c *model.Campaign, status model.CampaignStatus) Event {
	return Event{Kind: KindCampaignStatus, CampaignID: c.ID, Status: status}
}
