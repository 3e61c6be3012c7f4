package model

import "testing"

func TestCampaignStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to CampaignStatus
		ok       bool
	}{
		{CampaignPending, CampaignProcessing, true},
		{CampaignProcessing, CampaignCompleted, true},
		{CampaignCompleted, CampaignProcessing, true},
		{CampaignProcessing, CampaignPending, false},
		{CampaignCompleted, CampaignPending, false},
		{CampaignPending, CampaignCompleted, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestStatusValidity(t *testing.T) {
	for _, s := range []CampaignStatus{CampaignPending, CampaignProcessing, CampaignCompleted} {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if CampaignStatus("draft").IsValid() {
		t.Error("expected draft to be invalid")
	}
	if RecipientStatus("pending").IsValid() {
		t.Error("expected pending to be invalid for recipients")
	}
	if RecipientQueued.IsTerminal() {
		t.Error("queued must not be terminal")
	}
	if !RecipientSent.IsTerminal() || !RecipientFailed.IsTerminal() {
		t.Error("sent and failed must be terminal")
	}
}

func TestNewProgress(t *testing.T) {
	cases := []struct {
		sent, total, pct int
	}{
		{0, 0, 0}, // zero-total guard
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 5, 20},
		{5, 5, 100},
		{1, 8, 13}, // 12.5 rounds up
	}
	for _, c := range cases {
		p := NewProgress(c.sent, c.total)
		if p.Percentage != c.pct {
			t.Errorf("NewProgress(%d, %d): expected %d%%, got %d%%", c.sent, c.total, c.pct, p.Percentage)
		}
		if p.Percentage < 0 || p.Percentage > 100 {
			t.Errorf("percentage out of range: %d", p.Percentage)
		}
	}
}

func TestProgressOf(t *testing.T) {
	recipients := []Recipient{
		{ID: 1, Status: RecipientSent},
		{ID: 2, Status: RecipientFailed},
		{ID: 3, Status: RecipientSent},
	}
	p := ProgressOf(recipients)
	if p.Sent != 2 || p.Total != 3 || p.Percentage != 67 {
		t.Errorf("unexpected progress: %+v", p)
	}
}
