package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	EventIncidentCreated   = "incident.created"
	EventIncidentModerated = "incident.moderated"
)

// IncidentEvent is the message published on the incident queue. The
// notifier service keeps its own copy of this shape.
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

// publishEvent is best effort: a broker outage never fails the request.
func (a *App) publishEvent(ctx context.Context, ev IncidentEvent) {
	ev.OccurredAt = a.now()
	if err := a.events.Publish(ctx, a.cfg.Queue.Name, ev); err != nil {
		a.log.Warn("failed to publish incident event",
			zap.String("type", ev.Type),
			zap.String("incident_id", ev.IncidentID),
			zap.Error(err),
		)
	}
}
