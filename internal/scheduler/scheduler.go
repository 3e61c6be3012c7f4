// Package scheduler enqueues dispatch runs for campaigns whose
// scheduled time has passed.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/relaydesk/campaign-dispatch/internal/queue"
)

// CampaignSource is the slice of campaign persistence the scheduler
// needs.
type CampaignSource interface {
	ListDueScheduled(now time.Time) ([]int, error)
}

type Scheduler struct {
	Campaigns CampaignSource
	Queue     queue.Queue
	Log       zerolog.Logger

	cron *cron.Cron
}

func New(campaigns CampaignSource, q queue.Queue, log zerolog.Logger) *Scheduler {
	return &Scheduler{Campaigns: campaigns, Queue: q, Log: log}
}

// Start begins polling on the given cron spec (e.g. "@every 1m").
func (s *Scheduler) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, s.Tick); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Tick enqueues one dispatch job per due campaign. Exported so tests
// can drive the poll without a running cron.
func (s *Scheduler) Tick() {
	ids, err := s.Campaigns.ListDueScheduled(time.Now())
	if err != nil {
		s.Log.Error().Err(err).Msg("list due campaigns failed")
		return
	}
	for _, id := range ids {
		if err := s.Queue.Publish(queue.TopicDispatch, queue.DispatchJob{CampaignID: id}.Marshal()); err != nil {
			s.Log.Error().Err(err).Int("campaign_id", id).Msg("enqueue scheduled dispatch failed")
			continue
		}
		s.Log.Info().Int("campaign_id", id).Msg("scheduled dispatch enqueued")
	}
}
