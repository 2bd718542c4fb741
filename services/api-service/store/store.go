package store

import (
	"context"
	"errors"
	"time"

	"safe-haven/services/api-service/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidID      = errors.New("invalid id format")
	ErrDuplicateEmail = errors.New("email already registered")
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int64) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// DayCount is one day bucket of the reports-per-day aggregation.
type DayCount struct {
	Date  string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

// CategoryCount is one bucket of the per-category aggregation. Categories
// with zero incidents do not appear.
type CategoryCount struct {
	Category string `bson:"_id" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

type IncidentStore interface {
	Insert(ctx context.Context, i *models.Incident) error
	FindByID(ctx context.Context, id string) (*models.Incident, error)
	// List returns incidents newest-first; empty status means no filter.
	List(ctx context.Context, status models.IncidentStatus, limit int64) ([]models.Incident, error)
	ListByReporter(ctx context.Context, reporterID string) ([]models.Incident, error)
	SetStatus(ctx context.Context, id string, status models.IncidentStatus, moderatorID string, reason string) (*models.Incident, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.IncidentStatus) (int64, error)
	CountBySeverity(ctx context.Context, severity models.Severity) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ReportsPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	CategoryDistribution(ctx context.Context) ([]CategoryCount, error)
}

type ArchiveStore interface {
	Insert(ctx context.Context, a *models.ArchivedIncident) error
	// ListByReporter returns the user's archived incidents, newest deletion first.
	ListByReporter(ctx context.Context, reporterID string) ([]models.ArchivedIncident, error)
}
