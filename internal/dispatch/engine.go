// Package dispatch contains the engine that walks a campaign's queued
// recipients, performs one send attempt each, applies the status
// transitions and notifies observers after every unit of work.
package dispatch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/relaydesk/campaign-dispatch/internal/model"
	"github.com/relaydesk/campaign-dispatch/internal/notify"
)

// CampaignStore is the slice of campaign persistence the engine needs.
type CampaignStore interface {
	GetByID(id int) (*model.Campaign, error)
	UpdateStatus(id int, status model.CampaignStatus) error
	RecipientCounts(id int) (sent, total int, err error)
}

// RecipientStore is the slice of recipient persistence the engine needs.
type RecipientStore interface {
	ListQueued(campaignID int) ([]model.Recipient, error)
	UpdateStatus(id int, status model.RecipientStatus) error
}

type Engine struct {
	Campaigns  CampaignStore
	Recipients RecipientStore
	Sender     Sender
	Notifier   notify.Notifier
	Log        zerolog.Logger
}

// Run executes one dispatch run for a campaign. Recipients are
// processed strictly in order, one at a time, so observers see
// notifications in a consistent sequence. Per-recipient failures and
// notification failures are logged and never abort the batch; only a
// failure to load the campaign or its dispatch set escapes.
func (e *Engine) Run(campaignID int) error {
	log := e.Log.With().
		Str("run_id", uuid.NewString()).
		Int("campaign_id", campaignID).
		Logger()

	campaign, err := e.Campaigns.GetByID(campaignID)
	if err != nil {
		return err
	}
	queued, err := e.Recipients.ListQueued(campaignID)
	if err != nil {
		return fmt.Errorf("load dispatch set: %w", err)
	}

	e.setCampaignStatus(campaign, model.CampaignProcessing, log)
	e.notifyStatus(campaign, log)
	log.Info().Int("queued", len(queued)).Msg("dispatch run started")

	failed := 0
	for i := range queued {
		if !e.process(campaign, &queued[i], log) {
			failed++
		}
	}

	e.setCampaignStatus(campaign, model.CampaignCompleted, log)
	e.notifyProgress(campaign, log)
	e.notifyStatus(campaign, log)

	summary := log.Info()
	if failed > 0 {
		summary = log.Warn()
	}
	summary.Int("sent", len(queued)-failed).Int("failed", failed).Msg("dispatch run finished")
	return nil
}

// process handles a single recipient inside the failure-isolating
// boundary and reports whether the attempt succeeded.
func (e *Engine) process(c *model.Campaign, r *model.Recipient, log zerolog.Logger) bool {
	err := e.attempt(r)
	if err == nil {
		r.Status = model.RecipientSent
	} else {
		r.Status = model.RecipientFailed
		log.Error().Err(err).Int("recipient_id", r.ID).Msg("send failed")
	}

	if uerr := e.Recipients.UpdateStatus(r.ID, r.Status); uerr != nil {
		log.Error().Err(uerr).Int("recipient_id", r.ID).Msg("recipient status update failed")
	}
	if nerr := e.Notifier.RecipientUpdated(r); nerr != nil {
		log.Error().Err(nerr).Int("recipient_id", r.ID).Msg("recipient notification failed")
	}
	e.notifyProgress(c, log)
	return err == nil
}

// attempt invokes the sender, converting a panic into an error so a
// misbehaving sender cannot unwind past the per-recipient boundary.
func (e *Engine) attempt(r *model.Recipient) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sender panic: %v", p)
		}
	}()
	return e.Sender.Attempt(r)
}

func (e *Engine) setCampaignStatus(c *model.Campaign, status model.CampaignStatus, log zerolog.Logger) {
	if !c.Status.CanTransitionTo(status) && c.Status != status {
		log.Warn().Str("from", c.Status.String()).Str("to", status.String()).Msg("unexpected status transition")
	}
	c.Status = status
	if err := e.Campaigns.UpdateStatus(c.ID, status); err != nil {
		log.Error().Err(err).Str("status", status.String()).Msg("campaign status update failed")
	}
}

// notifyProgress recomputes the aggregate from the store so the payload
// reflects the write just committed, never a stale snapshot.
func (e *Engine) notifyProgress(c *model.Campaign, log zerolog.Logger) {
	sent, total, err := e.Campaigns.RecipientCounts(c.ID)
	if err != nil {
		log.Error().Err(err).Msg("recipient counts failed")
		return
	}
	if nerr := e.Notifier.CampaignProgress(c, model.NewProgress(sent, total)); nerr != nil {
		log.Error().Err(nerr).Msg("progress notification failed")
	}
}

func (e *Engine) notifyStatus(c *model.Campaign, log zerolog.Logger) {
	if nerr := e.Notifier.CampaignStatus(c, c.Status); nerr != nil {
		log.Error().Err(nerr).Str("status", c.Status.String()).Msg("status notification failed")
	}
}
