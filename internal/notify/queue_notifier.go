package notify

import (
	"encoding/json"

	"github.com/relaydesk/campaign-dispatch/internal/model"
	"github.com/relaydesk/campaign-dispatch/internal/queue"
)

// QueueNotifier publishes notification events to the shared queue so a
// separate process (the HTTP server) can relay them to live viewers.
type QueueNotifier struct {
	Queue queue.Queue
}

func NewQueueNotifier(q queue.Queue) *QueueNotifier {
	return &QueueNotifier{Queue: q}
}

func (n *QueueNotifier) publish(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.Queue.Publish(queue.TopicEvents, body)
}

func (n *QueueNotifier) RecipientUpdated(r *model.Recipient) error {
	return n.publish(recipientEvent(r))
}

func (n *QueueNotifier) CampaignProgress(c *model.Campaign, p model.Progress) error {
	return n.publish(progressEvent(c, p))
}

func (n *QueueNotifier) CampaignStatus(c *model.Campaign, status model.CampaignStatus) error {
	return n.publish(statusEvent(c, status))
}

// Relay consumes events from the queue and feeds them into a hub.
// Run on the server side as the counterpart of QueueNotifier.
func Relay(q queue.Queue, hub *Hub) error {
	return q.Subscribe(queue.TopicEvents, func(body []byte) error {
		var ev Event
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		hub.Dispatch(ev)
		return nil
	})
}

var _ Notifier = (*QueueNotifier)(nil)
