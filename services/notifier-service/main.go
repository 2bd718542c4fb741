// The notifier consumes incident events published by the api service and
// emails reporters when a moderator decides on their report.
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"safe-haven/pkg/config"
	"safe-haven/pkg/logger"
	"safe-haven/pkg/mailer"
	"safe-haven/pkg/queue"
)

// IncidentEvent mirrors the shape published by the api service.
type IncidentEvent struct {
	Type          string    `json:"type"`
	IncidentID    string    `json:"incident_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	ReporterID    string    `json:"reporter_id"`
	ReporterEmail string    `json:"reporter_email"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, closeLog := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer closeLog()

	if cfg.Queue.URI == "" {
		log.Fatal("APP_QUEUE_URI must be set")
	}

	conn, ch, err := queue.Connect(cfg.Queue.URI)
	if err != nil {
		log.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer conn.Close()
	defer ch.Close()

	msgs, err := queue.Consume(ch, cfg.Queue.Name)
	if err != nil {
		log.Fatal("failed to consume queue", zap.Error(err))
	}

	mail := mailer.NewSMTP(cfg.SMTP)
	log.Info("notifier listening", zap.String("queue", cfg.Queue.Name))

	for d := range msgs {
		var event IncidentEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Warn("failed to parse incident event", zap.Error(err))
			continue
		}
		handleEvent(log, mail, event)
	}
}

func handleEvent(log *zap.Logger, mail mailer.Sender, event IncidentEvent) {
	fields := []zap.Field{
		zap.String("type", event.Type),
		zap.String("incident_id", event.IncidentID),
		zap.String("status", event.Status),
	}

	switch event.Type {
	case "incident.created":
		// Nothing to deliver; log for the audit trail.
		log.Info("incident reported", fields...)

	case "incident.moderated":
		if event.Status != "verified" && event.Status != "rejected" {
			// A revert to pending carries no decision worth emailing about.
			log.Info("incident reverted to pending", fields...)
			return
		}
		if event.ReporterEmail == "" || event.ReporterEmail == "unknown" {
			log.Warn("no reporter email on moderation event", fields...)
			return
		}
		if err := mail.SendModerationNotice(event.ReporterEmail, event.Title, event.Status, event.Reason); err != nil {
			log.Error("failed to send moderation notice", append(fields, zap.Error(err))...)
			return
		}
		log.Info("moderation notice sent", fields...)

	default:
		log.Warn("unknown event type", fields...)
	}
}
