package notify

import (
	"sync"

	"github.com/relaydesk/campaign-dispatch/internal/model"
)

const subscriberBuffer = 64

// Hub is an in-memory broadcast channel keyed by campaign id. It
// implements Notifier for in-process use and feeds SSE subscribers on
// the server side.
type Hub struct {
	mu   sync.Mutex
	subs map[int]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]map[chan Event]struct{})}
}

// Subscribe registers an observer for one campaign. The returned cancel
// func must be called when the observer goes away.
func (h *Hub) Subscribe(campaignID int) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[campaignID] == nil {
		h.subs[campaignID] = make(map[chan Event]struct{})
	}
	h.subs[campaignID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[campaignID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, campaignID)
				}
			}
		}
	}
	return ch, cancel
}

// Dispatch fans an event out to the campaign's subscribers. A slow
// subscriber loses events rather than blocking the sender.
func (h *Hub) Dispatch(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.CampaignID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) RecipientUpdated(r *model.Recipient) error {
	h.Dispatch(recipientEvent(r))
	return nil
}

func (h *Hub) CampaignProgress(c *model.Campaign, p model.Progress) error {
	h.Dispatch(progressEvent(c, p))
	return nil
}

func (h *Hub) CampaignStatus(c *model.Campaign, status model.CampaignStatus) error {
	h.Dispatch(statusEvent(c, status))
	return nil
}

var _ Notifier = (*Hub)(nil)
