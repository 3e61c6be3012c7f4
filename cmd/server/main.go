// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/relaydesk/campaign-dispatch/internal/config"
	"github.com/relaydesk/campaign-dispatch/internal/db"
	"github.com/relaydesk/campaign-dispatch/internal/handler"
	"github.com/relaydesk/campaign-dispatch/internal/notify"
	"github.com/relaydesk/campaign-dispatch/internal/queue"
	"github.com/relaydesk/campaign-dispatch/internal/repository"
	"github.com/relaydesk/campaign-dispatch/internal/service"
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

	// The worker publishes notification events back onto the queue;
	// relay them into the hub that feeds SSE subscribers.
	hub := notify.NewHub()
	if err := notify.Relay(q, hub); err != nil {
		log.Fatal().Err(err).Msg("start event relay")
	}

	campaignRepo := &repository.CampaignRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		RecipientRepo: recipientRepo,
		Queue:         q,
		Log:           log,
	}

	campaignHandler := &handler.CampaignHandler{
		Service: campaignService,
		Hub:     hub,
		Log:     log,
	}

	r := chi.NewRouter()
	campaignHandler.Routes(r)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
