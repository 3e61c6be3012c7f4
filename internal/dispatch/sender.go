package dispatch

import (
	"math/rand"
	"time"

	"github.com/relaydesk/campaign-dispatch/internal/model"
)

// Sender performs exactly one send attempt for one recipient. A nil
// return means sent; a non-nil return carries the failure cause. The
// engine owns the catch boundary, so implementations may also panic
// without aborting a batch.
type Sender interface {
	Attempt(r *model.Recipient) error
}

// SimulatedSender models send latency with a uniformly random
// whole-second delay in [MinDelay, MaxDelay], then reports success. No
// external system is contacted; swap in a real transport by providing
// another Sender.
type SimulatedSender struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	// Sleep and rng are pluggable so tests run deterministically.
	Sleep func(time.Duration)
	rng   *rand.Rand
}

func NewSimulatedSender(min, max time.Duration) *SimulatedSender {
	if max < min {
		max = min
	}
	return &SimulatedSender{
		MinDelay: min,
		MaxDelay: max,
		Sleep:    time.Sleep,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SimulatedSender) Attempt(r *model.Recipient) error {
	s.Sleep(s.delay())
	return nil
}

func (s *SimulatedSender) delay() time.Duration {
	steps := int64((s.MaxDelay-s.MinDelay)/time.Second) + 1
	return s.MinDelay + time.Duration(s.rng.Int63n(steps))*time.Second
}
