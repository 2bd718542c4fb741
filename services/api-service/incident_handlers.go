package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"safe-haven/pkg/middleware"
	"safe-haven/pkg/response"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

const maxPhotoSize = 8 << 20 // 8 MB

func (a *App) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	status := models.IncidentStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		response.Error(w, http.StatusBadRequest, "Invalid status", "")
		return
	}

	incidents, err := a.incidents.List(r.Context(), status, 0)
	if err != nil {
		a.log.Error("failed to fetch incidents", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch incidents", "")
		return
	}

	response.Success(w, http.StatusOK, "Incidents fetched successfully", models.NewIncidentDTOs(incidents))
}

func (a *App) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token, authorization denied", "")
		return
	}

	var input struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Severity    string   `json:"severity"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		Location    string   `json:"location"`
		PhotoURL    string   `json:"photoUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)

	if input.Title == "" || input.Description == "" || input.Location == "" {
		response.Error(w, http.StatusBadRequest, "Title, Description, and Location are required", "")
		return
	}
	category := models.Category(input.Category)
	if !category.Valid() {
		response.Error(w, http.StatusBadRequest, "Invalid category", "")
		return
	}
	severity := models.SeverityMedium
	if input.Severity != "" {
		severity = models.Severity(input.Severity)
		if !severity.Valid() {
			response.Error(w, http.StatusBadRequest, "Invalid severity", "")
			return
		}
	}
	if input.Latitude == nil || input.Longitude == nil {
		response.Error(w, http.StatusBadRequest, "Latitude and longitude are required", "")
		return
	}
	if *input.Latitude < -90 || *input.Latitude > 90 || *input.Longitude < -180 || *input.Longitude > 180 {
		response.Error(w, http.StatusBadRequest, "Coordinates out of range", "")
		return
	}

	reporterOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Token is not valid", "")
		return
	}

	// Snapshot the reporter email for moderator convenience. Not refreshed
	// if the user later changes their address.
	reporterEmail := "unknown"
	if user, err := a.users.FindByID(r.Context(), userID); err == nil {
		reporterEmail = user.Email
	}

	incident := &models.Incident{
		Title:           input.Title,
		Description:     input.Description,
		Category:        category,
		Severity:        severity,
		Latitude:        *input.Latitude,
		Longitude:       *input.Longitude,
		Location:        input.Location,
		ReportedBy:      reporterOID,
		ReportedByEmail: reporterEmail,
		PhotoURL:        input.PhotoURL,
		Status:          models.IncidentPending, // server-enforced; client status is ignored
		CreatedAt:       a.now(),
	}

	if err := a.incidents.Insert(r.Context(), incident); err != nil {
		a.log.Error("failed to save incident", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to save incident", "")
		return
	}

	a.publishEvent(r.Context(), IncidentEvent{
		Type:          EventIncidentCreated,
		IncidentID:    incident.ID.Hex(),
		Title:         incident.Title,
		Category:      string(incident.Category),
		Status:        string(incident.Status),
		ReporterID:    userID,
		ReporterEmail: reporterEmail,
	})

	response.Success(w, http.StatusCreated, "Incident reported successfully", models.NewIncidentDTO(incident))
}

func (a *App) handleUserIncidents(w http.ResponseWriter, r *http.Request) {
	reporterID := r.PathValue("userId")

	incidents, err := a.incidents.ListByReporter(r.Context(), reporterID)
	if errors.Is(err, store.ErrInvalidID) {
		response.Error(w, http.StatusBadRequest, "Invalid user ID format", "")
		return
	}
	if err != nil {
		a.log.Error("failed to fetch user incidents", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch incidents", "")
		return
	}

	response.Success(w, http.StatusOK, "User incidents fetched successfully", models.NewIncidentDTOs(incidents))
}

func (a *App) handleArchivedIncidents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token, authorization denied", "")
		return
	}

	archived, err := a.archive.ListByReporter(r.Context(), userID)
	if err != nil {
		a.log.Error("failed to fetch archived incidents", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch archived incidents", "")
		return
	}

	response.Success(w, http.StatusOK, "Archived incidents fetched successfully", models.NewArchivedIncidentDTOs(archived))
}

func (a *App) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if a.photos == nil {
		response.Error(w, http.StatusServiceUnavailable, "Photo storage is not configured", "")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Photo exceeds the size limit", "")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Photo file is required", "")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error(w, http.StatusBadRequest, "Only image uploads are allowed", "")
		return
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	url, err := a.photos.Put(r.Context(), name, file, header.Size, contentType)
	if err != nil {
		a.log.Error("failed to store photo", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to store photo", "")
		return
	}

	response.Success(w, http.StatusCreated, "Photo uploaded", map[string]string{"url": url})
}
