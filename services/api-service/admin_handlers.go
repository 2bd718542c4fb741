package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"safe-haven/pkg/middleware"
	"safe-haven/pkg/response"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

const (
	adminUserListLimit     = 50
	adminIncidentListLimit = 100
	reportsPerDayWindow    = 5 // trailing days in the dashboard chart
)

type dashboardCards struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalReports    int64 `json:"totalReports"`
	PendingReports  int64 `json:"pendingReports"`
	VerifiedReports int64 `json:"verifiedReports"`
	RejectedReports int64 `json:"rejectedReports"`
	ReportsToday    int64 `json:"reportsToday"`
}

type dashboardCharts struct {
	ReportsPerDay        []store.DayCount      `json:"reportsPerDay"`
	CategoryDistribution []store.CategoryCount `json:"categoryDistribution"`
}

type dashboardStats struct {
	Cards  dashboardCards  `json:"cards"`
	Charts dashboardCharts `json:"charts"`
}

// handleAdminStats recomputes everything from current data on every call;
// there is no caching layer.
func (a *App) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := a.now()

	var stats dashboardStats
	var err error

	if stats.Cards.TotalUsers, err = a.users.Count(ctx); err == nil {
		if stats.Cards.TotalReports, err = a.incidents.Count(ctx); err == nil {
			if stats.Cards.PendingReports, err = a.incidents.CountByStatus(ctx, models.IncidentPending); err == nil {
				if stats.Cards.VerifiedReports, err = a.incidents.CountByStatus(ctx, models.IncidentVerified); err == nil {
					stats.Cards.RejectedReports, err = a.incidents.CountByStatus(ctx, models.IncidentRejected)
				}
			}
		}
	}
	if err != nil {
		a.log.Error("failed to compute dashboard counts", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching stats", "")
		return
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.Cards.ReportsToday, err = a.incidents.CountSince(ctx, startOfDay); err != nil {
		a.log.Error("failed to count today's reports", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching stats", "")
		return
	}

	since := now.AddDate(0, 0, -reportsPerDayWindow)
	if stats.Charts.ReportsPerDay, err = a.incidents.ReportsPerDay(ctx, since); err != nil {
		a.log.Error("failed to aggregate reports per day", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching stats", "")
		return
	}
	if stats.Charts.CategoryDistribution, err = a.incidents.CategoryDistribution(ctx); err != nil {
		a.log.Error("failed to aggregate category distribution", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching stats", "")
		return
	}

	response.Success(w, http.StatusOK, "Dashboard stats fetched", stats)
}

func (a *App) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context(), adminUserListLimit)
	if err != nil {
		a.log.Error("failed to fetch users", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching users", "")
		return
	}

	out := make([]models.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserDTO(&users[i]))
	}
	response.Success(w, http.StatusOK, "Users fetched", out)
}

func (a *App) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	target, err := a.users.FindByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrInvalidID) {
		response.Error(w, http.StatusBadRequest, "Invalid user ID format", "")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Server error updating user", "")
		return
	}

	if !models.AdminCanModify(target) {
		response.Error(w, http.StatusForbidden, "Action forbidden: Cannot modify an Owner account.", "")
		return
	}
	if models.Role(input.Role) == models.RoleOwner {
		response.Error(w, http.StatusForbidden, "Action forbidden: Cannot assign Owner role.", "")
		return
	}

	if input.Role != "" {
		role := models.Role(input.Role)
		if !role.Assignable() {
			response.Error(w, http.StatusBadRequest, "Invalid role", "")
			return
		}
		target.Role = role
	}
	if input.Status != "" {
		status := models.UserStatus(input.Status)
		if !status.Valid() {
			response.Error(w, http.StatusBadRequest, "Invalid status", "")
			return
		}
		target.Status = status
	}

	if err := a.users.Update(r.Context(), target); err != nil {
		a.log.Error("failed to update user", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error updating user", "")
		return
	}

	response.Success(w, http.StatusOK, "User updated", models.NewUserDTO(target))
}

// handleAdminDeleteUser removes the account permanently. Unlike incidents,
// users are never archived.
func (a *App) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Owner accounts are immutable through the admin API, including deletion.
	target, err := a.users.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrInvalidID) {
		response.Error(w, http.StatusBadRequest, "Invalid User ID format", "")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Server error deleting user", "")
		return
	}
	if !models.AdminCanModify(target) {
		response.Error(w, http.StatusForbidden, "Action forbidden: Cannot modify an Owner account.", "")
		return
	}

	if err := a.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "User not found", "")
			return
		}
		a.log.Error("failed to delete user", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error deleting user", "")
		return
	}

	response.Success(w, http.StatusOK, "User deleted", nil)
}

func (a *App) handleAdminIncidents(w http.ResponseWriter, r *http.Request) {
	status := models.IncidentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		response.Error(w, http.StatusBadRequest, "Invalid status", "")
		return
	}

	incidents, err := a.incidents.List(r.Context(), status, adminIncidentListLimit)
	if err != nil {
		a.log.Error("failed to fetch incidents for moderation", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching incidents", "")
		return
	}

	response.Success(w, http.StatusOK, "Incidents fetched", models.NewAdminIncidentDTOs(incidents))
}

func (a *App) handleModerateIncident(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserID(r)

	var input struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	status := models.IncidentStatus(input.Status)
	if !status.Valid() {
		response.Error(w, http.StatusBadRequest, "Invalid status", "")
		return
	}

	incident, err := a.incidents.SetStatus(r.Context(), r.PathValue("id"), status, adminID, input.Reason)
	if errors.Is(err, store.ErrInvalidID) {
		response.Error(w, http.StatusBadRequest, "Invalid incident ID format", "")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Incident not found", "")
		return
	}
	if err != nil {
		a.log.Error("failed to moderate incident", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error moderating incident", "")
		return
	}

	a.publishEvent(r.Context(), IncidentEvent{
		Type:          EventIncidentModerated,
		IncidentID:    incident.ID.Hex(),
		Title:         incident.Title,
		Category:      string(incident.Category),
		Status:        string(incident.Status),
		Reason:        incident.ModerationReason,
		ReporterID:    incident.ReportedBy.Hex(),
		ReporterEmail: incident.ReportedByEmail,
	})

	response.Success(w, http.StatusOK, "Incident moderated", models.NewAdminIncidentDTO(incident))
}

// handleAdminDeleteIncident always archives before removing, so the
// reporter keeps their rejected-report history.
func (a *App) handleAdminDeleteIncident(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserID(r)

	incident, err := a.incidents.FindByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrInvalidID) {
		response.Error(w, http.StatusBadRequest, "Invalid incident ID format", "")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Incident not found", "")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Server error deleting incident", "")
		return
	}

	deletedBy, _ := primitive.ObjectIDFromHex(adminID)
	if err := a.archive.Insert(r.Context(), incident.Archive(deletedBy, a.now())); err != nil {
		a.log.Error("failed to archive incident", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error deleting incident", "")
		return
	}

	if err := a.incidents.Delete(r.Context(), incident.ID.Hex()); err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Error("failed to delete incident", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error deleting incident", "")
		return
	}

	response.Success(w, http.StatusOK, "Incident deleted", nil)
}
