// cmd/worker/main.go
package main

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/relaydesk/campaign-dispatch/internal/config"
	"github.com/relaydesk/campaign-dispatch/internal/db"
	"github.com/relaydesk/campaign-dispatch/internal/dispatch"
	"github.com/relaydesk/campaign-dispatch/internal/notify"
	"github.com/relaydesk/campaign-dispatch/internal/queue"
	"github.com/relaydesk/campaign-dispatch/internal/repository"
	"github.com/relaydesk/campaign-dispatch/internal/scheduler"
)

func main() {
	log := newLogger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = log.Level(parseLevel(cfg.LogLevel))

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer conn.Close()

	amqpConn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect amqp")
	}
	defer amqpConn.Close()

	q, err := queue.NewAMQPQueue(amqpConn)
	if err != nil {
		log.Fatal().Err(err).Msg("open amqp channel")
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}

	engine := &dispatch.Engine{
		Campaigns:  campaignRepo,
		Recipients: recipientRepo,
		Sender:     dispatch.NewSimulatedSender(cfg.SendDelayMin, cfg.SendDelayMax),
		Notifier:   notify.NewQueueNotifier(q),
		Log:        log,
	}

	err = q.Subscribe(queue.TopicDispatch, func(body []byte) error {
		var job queue.DispatchJob
		if err := json.Unmarshal(body, &job); err != nil {
			log.Error().Err(err).Msg("invalid dispatch job")
			return nil // malformed jobs are dropped, not retried
		}
		return engine.Run(job.CampaignID)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe to dispatch jobs")
	}

	sched := scheduler.New(campaignRepo, q, log)
	if err := sched.Start(cfg.SchedulerSpec); err != nil {
		log.Fatal().Err(err).Msg("start scheduler")
	}
	defer sched.Stop()

	log.Info().Msg("worker running, waiting for dispatch jobs")
	select {}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
