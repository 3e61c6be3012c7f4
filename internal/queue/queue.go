package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Topic names shared by the server and the worker.
const (
	TopicDispatch = "campaign_dispatch"
	TopicEvents   = "campaign_events"
)

const maxRetries = 3

// DispatchJob is the payload enqueued when a campaign dispatch is
// triggered.
type DispatchJob struct {
	CampaignID int `json:"campaign_id"`
}

func (j DispatchJob) Marshal() []byte {
	b, _ := json.Marshal(j)
	return b
}

// Queue decouples publishers from the transport: AMQP in production,
// in-memory for tests and single-process runs.
type Queue interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler func(body []byte) error) error
}

// InMemoryQueue fans published messages out to subscribed handlers,
// retrying failed deliveries with backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(body []byte) error
	wg       sync.WaitGroup
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(body []byte) error),
	}
}

func (q *InMemoryQueue) Publish(topic string, body []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go func(h func([]byte) error) {
			defer q.wg.Done()
			deliver(h, body)
		}(handler)
	}
	return nil
}

func deliver(handler func([]byte) error, body []byte) {
	for attempt := 0; ; attempt++ {
		if err := handler(body); err == nil {
			return
		}
		if attempt >= maxRetries {
			return
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(body []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until all in-flight deliveries finish. Test helper.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
