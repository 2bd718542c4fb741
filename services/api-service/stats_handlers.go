package main

import (
	"net/http"

	"go.uber.org/zap"

	"safe-haven/pkg/response"
	"safe-haven/services/api-service/models"
)

type publicStats struct {
	TotalIncidents  int64 `json:"totalIncidents"`
	HighPriority    int64 `json:"highPriority"`
	VerifiedReports int64 `json:"verifiedReports"`
	TotalUsers      int64 `json:"totalUsers"`
}

// handlePublicStats serves the unauthenticated landing-page counters.
func (a *App) handlePublicStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stats publicStats
	var err error

	if stats.TotalIncidents, err = a.incidents.Count(ctx); err == nil {
		if stats.HighPriority, err = a.incidents.CountBySeverity(ctx, models.SeverityHigh); err == nil {
			if stats.VerifiedReports, err = a.incidents.CountByStatus(ctx, models.IncidentVerified); err == nil {
				stats.TotalUsers, err = a.users.Count(ctx)
			}
		}
	}
	if err != nil {
		a.log.Error("failed to compute public stats", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Server error fetching stats", "")
		return
	}

	response.Success(w, http.StatusOK, "Stats fetched", stats)
}
