package main

import (
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"safe-haven/pkg/response"
)

// The proxy endpoints exist so third-party API keys never reach the client.
// They hold no state, attempt no retries, and relay the upstream status and
// body verbatim.

func (a *App) handleRouteProxy(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		response.Error(w, http.StatusBadRequest, "Start and end coordinates are required", "")
		return
	}

	params := url.Values{}
	params.Set("api_key", a.cfg.Upstream.RouteAPIKey)
	params.Set("start", start)
	params.Set("end", end)

	a.relay(w, r, a.cfg.Upstream.RouteURL+"?"+params.Encode(), "Error fetching route")
}

func (a *App) handleGeocodeProxy(w http.ResponseWriter, r *http.Request) {
	lat := r.URL.Query().Get("lat")
	lon := r.URL.Query().Get("lon")
	if lat == "" || lon == "" {
		response.Error(w, http.StatusBadRequest, "Latitude and longitude are required", "")
		return
	}

	params := url.Values{}
	params.Set("lat", lat)
	params.Set("lon", lon)
	params.Set("format", "json")

	a.relay(w, r, a.cfg.Upstream.GeocodeURL+"?"+params.Encode(), "Error fetching location")
}

func (a *App) handleCrimesProxy(w http.ResponseWriter, r *http.Request) {
	lat := r.URL.Query().Get("lat")
	lon := r.URL.Query().Get("lon")
	if lat == "" || lon == "" {
		response.Error(w, http.StatusBadRequest, "Latitude and longitude are required", "")
		return
	}

	params := url.Values{}
	params.Set("lat", lat)
	params.Set("lng", lon)
	if date := r.URL.Query().Get("date"); date != "" {
		params.Set("date", date)
	}

	a.relay(w, r, a.cfg.Upstream.CrimeURL+"?"+params.Encode(), "Error fetching crime data")
}

func (a *App) relay(w http.ResponseWriter, r *http.Request, upstreamURL string, errMsg string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, errMsg, "")
		return
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("upstream request failed", zap.String("url", r.URL.Path), zap.Error(err))
		response.Error(w, http.StatusBadGateway, errMsg, "")
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		a.log.Warn("failed to relay upstream body", zap.Error(err))
	}
}
