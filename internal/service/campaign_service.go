// internal/service/campaign_service.go
package service

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/relaydesk/campaign-dispatch/internal/errors"
	"github.com/relaydesk/campaign-dispatch/internal/model"
	"github.com/relaydesk/campaign-dispatch/internal/queue"
	"github.com/relaydesk/campaign-dispatch/internal/repository"
)

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	RecipientRepo repository.RecipientRepositoryInterface
	Queue         queue.Queue
	Log           zerolog.Logger
}

type RecipientInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r RecipientInput) blank() bool {
	return strings.TrimSpace(r.Name) == "" &&
		strings.TrimSpace(r.Email) == "" &&
		strings.TrimSpace(r.Phone) == ""
}

type CreateCampaignInput struct {
	Title       string           `json:"title"`
	ScheduledAt *string          `json:"scheduled_at,omitempty"`
	Recipients  []RecipientInput `json:"recipients"`
}

// CampaignDetails is the read model for a single campaign page:
// the campaign, its recipients and the recomputed progress aggregate.
type CampaignDetails struct {
	model.Campaign
	Recipients []model.Recipient `json:"recipients"`
	Progress   model.Progress    `json:"progress"`
}

// CreateCampaign validates input and persists the campaign with its
// recipients. Validation happens here so the dispatch engine never
// observes a campaign without at least one addressable recipient.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	verr := &appErrors.ValidationError{}

	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title is required")
	}

	// All-blank recipient rows are dropped, not rejected; the form
	// submits empty trailing rows.
	kept := []RecipientInput{}
	for _, r := range in.Recipients {
		if !r.blank() {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		verr.Add("at least one recipient is required")
	}
	for i, r := range kept {
		if strings.TrimSpace(r.Name) == "" {
			verr.Add("recipient %d: name is required", i+1)
		}
		if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
			verr.Add("recipient %d: either email or phone must be present", i+1)
		}
	}

	var scheduledAt *time.Time
	if in.ScheduledAt != nil && strings.TrimSpace(*in.ScheduledAt) != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			verr.Add("scheduled_at must be RFC3339")
		} else {
			scheduledAt = &t
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}

	c := &model.Campaign{
		Title:       strings.TrimSpace(in.Title),
		Status:      model.CampaignPending,
		ScheduledAt: scheduledAt,
	}
	recipients := make([]model.Recipient, len(kept))
	for i, r := range kept {
		recipients[i] = model.Recipient{
			Name:   strings.TrimSpace(r.Name),
			Email:  strings.TrimSpace(r.Email),
			Phone:  strings.TrimSpace(r.Phone),
			Status: model.RecipientQueued,
		}
	}

	if err := s.CampaignRepo.Create(c, recipients); err != nil {
		return nil, err
	}
	s.Log.Info().Int("campaign_id", c.ID).Int("recipients", len(recipients)).Msg("campaign created")
	return c, nil
}

// ListCampaigns fetches campaigns with pagination, newest first.
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}

// GetCampaignDetails loads a campaign with its recipients and derives
// the progress aggregate from the recipient rows.
func (s *CampaignService) GetCampaignDetails(id int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	recipients, err := s.RecipientRepo.ListByCampaign(id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{
		Campaign:   *campaign,
		Recipients: recipients,
		Progress:   model.ProgressOf(recipients),
	}, nil
}

// StartDispatch enqueues a dispatch run for the campaign and returns
// immediately; the worker picks the job up out-of-band. The engine has
// no double-dispatch guard, so callers that care must not enqueue a
// campaign twice concurrently.
func (s *CampaignService) StartDispatch(campaignID int) error {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return err
	}
	if err := s.Queue.Publish(queue.TopicDispatch, queue.DispatchJob{CampaignID: campaignID}.Marshal()); err != nil {
		return err
	}
	s.Log.Info().Int("campaign_id", campaignID).Msg("dispatch enqueued")
	return nil
}
