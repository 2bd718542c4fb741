package models

import "time"

// Response DTOs. Handlers never serialize stored documents directly; each
// endpoint maps through one of these so internal fields stay internal.

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUserSummary(u *User) UserSummary {
	return UserSummary{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
	}
}

type UserDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewUserDTO(u *User) UserDTO {
	status := u.Status
	if status == "" {
		status = StatusActive
	}
	return UserDTO{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    status,
		CreatedAt: u.CreatedAt,
	}
}

// IncidentDTO is the public shape: no reporter email, no moderation fields.
type IncidentDTO struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Location    string         `json:"location"`
	PhotoURL    string         `json:"photoUrl,omitempty"`
	ReportedBy  string         `json:"reportedBy"`
	ReportedAt  time.Time      `json:"reportedAt"`
	Status      IncidentStatus `json:"status"`
}

func NewIncidentDTO(i *Incident) IncidentDTO {
	return IncidentDTO{
		ID:          i.ID.Hex(),
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Severity:    i.Severity,
		Latitude:    i.Latitude,
		Longitude:   i.Longitude,
		Location:    i.Location,
		PhotoURL:    i.PhotoURL,
		ReportedBy:  i.ReportedBy.Hex(),
		ReportedAt:  i.CreatedAt,
		Status:      i.Status,
	}
}

func NewIncidentDTOs(incidents []Incident) []IncidentDTO {
	out := make([]IncidentDTO, 0, len(incidents))
	for i := range incidents {
		out = append(out, NewIncidentDTO(&incidents[i]))
	}
	return out
}

// AdminIncidentDTO additionally exposes the moderation trail and the
// reporter email snapshot for the moderation views.
type AdminIncidentDTO struct {
	IncidentDTO
	ReportedByEmail  string `json:"reportedByEmail"`
	ModeratedBy      string `json:"moderatedBy,omitempty"`
	ModerationReason string `json:"moderationReason,omitempty"`
}

func NewAdminIncidentDTO(i *Incident) AdminIncidentDTO {
	dto := AdminIncidentDTO{
		IncidentDTO:      NewIncidentDTO(i),
		ReportedByEmail:  i.ReportedByEmail,
		ModerationReason: i.ModerationReason,
	}
	if !i.ModeratedBy.IsZero() {
		dto.ModeratedBy = i.ModeratedBy.Hex()
	}
	return dto
}

func NewAdminIncidentDTOs(incidents []Incident) []AdminIncidentDTO {
	out := make([]AdminIncidentDTO, 0, len(incidents))
	for i := range incidents {
		out = append(out, NewAdminIncidentDTO(&incidents[i]))
	}
	return out
}

// ArchivedIncidentDTO is what a reporter sees of their removed reports.
// Archived always surfaces as rejected regardless of the status at deletion.
type ArchivedIncidentDTO struct {
	ID               string         `json:"id"`
	ArchivedID       string         `json:"archivedId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Category         Category       `json:"category"`
	Severity         Severity       `json:"severity"`
	Location         string         `json:"location"`
	ReportedAt       time.Time      `json:"reportedAt"`
	DeletedAt        time.Time      `json:"deletedAt"`
	Status           IncidentStatus `json:"status"`
	ModerationReason string         `json:"moderationReason,omitempty"`
}

func NewArchivedIncidentDTO(a *ArchivedIncident) ArchivedIncidentDTO {
	return ArchivedIncidentDTO{
		ID:               a.OriginalID.Hex(),
		ArchivedID:       a.ID.Hex(),
		Title:            a.Title,
		Description:      a.Description,
		Category:         a.Category,
		Severity:         a.Severity,
		Location:         a.Location,
		ReportedAt:       a.OriginalCreatedAt,
		DeletedAt:        a.DeletedAt,
		Status:           IncidentRejected,
		ModerationReason: a.ModerationReason,
	}
}

func NewArchivedIncidentDTOs(archived []ArchivedIncident) []ArchivedIncidentDTO {
	out := make([]ArchivedIncidentDTO, 0, len(archived))
	for i := range archived {
		out = append(out, NewArchivedIncidentDTO(&archived[i]))
	}
	return out
}
