package main

import (
	"context"
	"net/http"
	"time"

	"safe-haven/pkg/response"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "UP",
		"service": "api-service",
	}

	if a.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.ping(ctx); err != nil {
			health["status"] = "DOWN"
			health["database"] = "disconnected"
			response.JSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "connected"
	}

	response.JSON(w, http.StatusOK, health)
}
