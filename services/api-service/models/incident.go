package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryTheft      Category = "theft"
	CategoryAssault    Category = "assault"
	CategoryVandalism  Category = "vandalism"
	CategoryHarassment Category = "harassment"
	CategoryScam       Category = "scam"
	CategoryUnsafeArea Category = "unsafe_area"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTheft, CategoryAssault, CategoryVandalism, CategoryHarassment,
		CategoryScam, CategoryUnsafeArea, CategoryOther:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type IncidentStatus string

const (
	IncidentPending  IncidentStatus = "pending"
	IncidentVerified IncidentStatus = "verified"
	IncidentRejected IncidentStatus = "rejected"
)

func (s IncidentStatus) Valid() bool {
	return s == IncidentPending || s == IncidentVerified || s == IncidentRejected
}

type Incident struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    Category           `bson:"category" json:"category"`
	Severity    Severity           `bson:"severity" json:"severity"`
	Latitude    float64            `bson:"latitude" json:"latitude"`
	Longitude   float64            `bson:"longitude" json:"longitude"`
	Location    string             `bson:"location" json:"location"`
	ReportedBy  primitive.ObjectID `bson:"reported_by" json:"reportedBy"`
	// ReportedByEmail is a snapshot taken at submission time. It is not
	// refreshed if the user later changes their email.
	ReportedByEmail  string             `bson:"reported_by_email" json:"-"`
	PhotoURL         string             `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Status           IncidentStatus     `bson:"status" json:"status"`
	ModeratedBy      primitive.ObjectID `bson:"moderated_by,omitempty" json:"moderatedBy,omitempty"`
	ModerationReason string             `bson:"moderation_reason,omitempty" json:"moderationReason,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"createdAt"`
}

// ArchivedIncident is an immutable copy of an incident written once, at the
// moment of an archiving delete.
type ArchivedIncident struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalID        primitive.ObjectID `bson:"original_id" json:"originalId"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description" json:"description"`
	Category          Category           `bson:"category" json:"category"`
	Severity          Severity           `bson:"severity" json:"severity"`
	Latitude          float64            `bson:"latitude" json:"latitude"`
	Longitude         float64            `bson:"longitude" json:"longitude"`
	Location          string             `bson:"location" json:"location"`
	ReportedBy        primitive.ObjectID `bson:"reported_by" json:"reportedBy"`
	ReportedByEmail   string             `bson:"reported_by_email" json:"-"`
	PhotoURL          string             `bson:"photo_url,omitempty" json:"photoUrl,omitempty"`
	Status            IncidentStatus     `bson:"status" json:"status"`
	ModeratedBy       primitive.ObjectID `bson:"moderated_by,omitempty" json:"moderatedBy,omitempty"`
	ModerationReason  string             `bson:"moderation_reason,omitempty" json:"moderationReason,omitempty"`
	OriginalCreatedAt time.Time          `bson:"original_created_at" json:"originalCreatedAt"`
	DeletedAt         time.Time          `bson:"deleted_at" json:"deletedAt"`
	DeletedBy         primitive.ObjectID `bson:"deleted_by,omitempty" json:"deletedBy,omitempty"`
}

// Archive copies the incident into its archival form.
func (i *Incident) Archive(deletedBy primitive.ObjectID, now time.Time) *ArchivedIncident {
	return &ArchivedIncident{
		OriginalID:        i.ID,
		Title:             i.Title,
		Description:       i.Description,
		Category:          i.Category,
		Severity:          i.Severity,
		Latitude:          i.Latitude,
		Longitude:         i.Longitude,
		Location:          i.Location,
		ReportedBy:        i.ReportedBy,
		ReportedByEmail:   i.ReportedByEmail,
		PhotoURL:          i.PhotoURL,
		Status:            i.Status,
		ModeratedBy:       i.ModeratedBy,
		ModerationReason:  i.ModerationReason,
		OriginalCreatedAt: i.CreatedAt,
		DeletedAt:         now,
		DeletedBy:         deletedBy,
	}
}
