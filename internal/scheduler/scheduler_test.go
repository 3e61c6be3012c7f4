package scheduler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaydesk/campaign-dispatch/internal/queue"
)

type fakeSource struct {
	due []int
	err error
}

func (f *fakeSource) ListDueScheduled(now time.Time) ([]int, error) {
	return f.due, f.err
}

func TestTickEnqueuesDueCampaigns(t *testing.T) {
	q := queue.NewInMemoryQueue()

	var mu sync.Mutex
	got := []int{}
	q.Subscribe(queue.TopicDispatch, func(body []byte) error {
		var job queue.DispatchJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, job.CampaignID)
		mu.Unlock()
		return nil
	})

	s := New(&fakeSource{due: []int{4, 7}}, q, zerolog.Nop())
	s.Tick()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %v", got)
	}
}

func TestTickToleratesSourceError(t *testing.T) {
	q := queue.NewInMemoryQueue()
	s := New(&fakeSource{err: errors.New("db down")}, q, zerolog.Nop())
	s.Tick() // must not panic or publish
}
