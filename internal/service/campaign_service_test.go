package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/relaydesk/campaign-dispatch/internal/errors"
	"github.com/relaydesk/campaign-dispatch/internal/model"
	"github.com/relaydesk/campaign-dispatch/internal/queue"
	"github.com/relaydesk/campaign-dispatch/internal/service"
)

// --- Mock repositories ---

type MockCampaignRepo struct {
	campaigns         []*model.Campaign
	created           []*model.Campaign
	createdRecipients [][]model.Recipient
}

func (m *MockCampaignRepo) Create(c *model.Campaign, recipients []model.Recipient) error {
	c.ID = len(m.created) + 1
	c.CreatedAt = time.Now()
	m.created = append(m.created, c)
	m.createdRecipients = append(m.createdRecipients, recipients)
	return nil
}

func (m *MockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *MockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	filtered := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status != "" && string(c.Status) != status {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)
	start := offset
	end := offset + limit
	if start > total {
		return []*model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockCampaignRepo) UpdateStatus(id int, status model.CampaignStatus) error { return nil }

func (m *MockCampaignRepo) RecipientCounts(id int) (int, int, error) { return 0, 0, nil }

func (m *MockCampaignRepo) ListDueScheduled(now time.Time) ([]int, error) { return nil, nil }

type MockRecipientRepo struct {
	recipients []model.Recipient
}

func (m *MockRecipientRepo) ListByCampaign(campaignID int) ([]model.Recipient, error) {
	out := []model.Recipient{}
	for _, r := range m.recipients {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRecipientRepo) ListQueued(campaignID int) ([]model.Recipient, error) {
	out := []model.Recipient{}
	for _, r := range m.recipients {
		if r.CampaignID == campaignID && r.Status == model.RecipientQueued {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRecipientRepo) UpdateStatus(id int, status model.RecipientStatus) error { return nil }

func newService(repo *MockCampaignRepo, recipients *MockRecipientRepo, q queue.Queue) *service.CampaignService {
	return &service.CampaignService{
		CampaignRepo:  repo,
		RecipientRepo: recipients,
		Queue:         q,
		Log:           zerolog.Nop(),
	}
}

// --- Tests ---

func TestCreateCampaign(t *testing.T) {
	repo := &MockCampaignRepo{}
	svc := newService(repo, &MockRecipientRepo{}, nil)

	c, err := svc.CreateCampaign(service.CreateCampaignInput{
		Title: "Spring launch",
		Recipients: []service.RecipientInput{
			{Name: "Alice", Email: "alice@example.com"},
			{Name: "Bob", Phone: "+254700000001"},
			{}, // blank form row, dropped silently
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != model.CampaignPending {
		t.Errorf("expected pending, got %s", c.Status)
	}
	if got := len(repo.createdRecipients[0]); got != 2 {
		t.Fatalf("expected 2 persisted recipients, got %d", got)
	}
	for _, r := range repo.createdRecipients[0] {
		if r.Status != model.RecipientQueued {
			t.Errorf("expected queued recipient, got %s", r.Status)
		}
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	cases := []struct {
		name  string
		input service.CreateCampaignInput
		want  string
	}{
		{
			name:  "missing title",
			input: service.CreateCampaignInput{Recipients: []service.RecipientInput{{Name: "A", Email: "a@x.com"}}},
			want:  "title is required",
		},
		{
			name:  "no recipients",
			input: service.CreateCampaignInput{Title: "T"},
			want:  "at least one recipient is required",
		},
		{
			name:  "all recipients blank",
			input: service.CreateCampaignInput{Title: "T", Recipients: []service.RecipientInput{{}, {}}},
			want:  "at least one recipient is required",
		},
		{
			name:  "recipient missing name",
			input: service.CreateCampaignInput{Title: "T", Recipients: []service.RecipientInput{{Email: "a@x.com"}}},
			want:  "recipient 1: name is required",
		},
		{
			name:  "recipient missing contact channel",
			input: service.CreateCampaignInput{Title: "T", Recipients: []service.RecipientInput{{Name: "A"}}},
			want:  "recipient 1: either email or phone must be present",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			repo := &MockCampaignRepo{}
			svc := newService(repo, &MockRecipientRepo{}, nil)
			_, err := svc.CreateCampaign(c.input)
			var verr *appErrors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, msg := range verr.Messages {
				if msg == c.want {
					found = true
				}
			}
			if !found {
				t.Errorf("expected message %q in %v", c.want, verr.Messages)
			}
			if len(repo.created) != 0 {
				t.Error("invalid campaign must not be persisted")
			}
		})
	}
}

func TestListCampaignsPagination(t *testing.T) {
	repo := &MockCampaignRepo{}
	for i := 1; i <= 5; i++ {
		repo.campaigns = append(repo.campaigns, &model.Campaign{ID: i, Title: "C", Status: model.CampaignPending})
	}
	svc := newService(repo, &MockRecipientRepo{}, nil)

	page1, pagination1, err := svc.ListCampaigns(1, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 {
		t.Errorf("expected 2 campaigns on page 1, got %d", len(page1))
	}
	if pagination1["total_count"] != 5 || pagination1["total_pages"] != 3 {
		t.Errorf("unexpected pagination: %v", pagination1)
	}

	page3, _, err := svc.ListCampaigns(3, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("expected 1 campaign on last page, got %d", len(page3))
	}
}

func TestGetCampaignDetailsProgress(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: []*model.Campaign{{ID: 1, Title: "T", Status: model.CampaignCompleted}}}
	recipients := &MockRecipientRepo{recipients: []model.Recipient{
		{ID: 1, CampaignID: 1, Status: model.RecipientSent},
		{ID: 2, CampaignID: 1, Status: model.RecipientFailed},
		{ID: 3, CampaignID: 1, Status: model.RecipientSent},
	}}
	svc := newService(repo, recipients, nil)

	details, err := svc.GetCampaignDetails(1)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.Progress.Sent != 2 || details.Progress.Total != 3 || details.Progress.Percentage != 67 {
		t.Errorf("unexpected progress: %+v", details.Progress)
	}
	if len(details.Recipients) != 3 {
		t.Errorf("expected 3 recipients, got %d", len(details.Recipients))
	}
}

func TestStartDispatchEnqueuesJob(t *testing.T) {
	repo := &MockCampaignRepo{campaigns: []*model.Campaign{{ID: 3, Title: "T", Status: model.CampaignPending}}}
	q := queue.NewInMemoryQueue()

	got := make(chan int, 1)
	q.Subscribe(queue.TopicDispatch, func(body []byte) error {
		got <- len(body)
		return nil
	})

	svc := newService(repo, &MockRecipientRepo{}, q)
	if err := svc.StartDispatch(3); err != nil {
		t.Fatalf("start dispatch: %v", err)
	}
	q.Wait()
	select {
	case <-got:
	default:
		t.Error("expected a job on the dispatch topic")
	}
}

func TestStartDispatchUnknownCampaign(t *testing.T) {
	svc := newService(&MockCampaignRepo{}, &MockRecipientRepo{}, queue.NewInMemoryQueue())
	err := svc.StartDispatch(404)
	var notFound *appErrors.ErrCampaignNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected campaign-not-found, got %v", err)
	}
}
