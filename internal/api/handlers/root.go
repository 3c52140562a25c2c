package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "busmon",
		"description": "Live Carris Metropolitana bus monitor",
		"version":     Version,
		"endpoints": map[string]string{
			"GET /":                                  "Map page",
			"GET /api":                               "API information",
			"GET /health":                            "Health check",
			"GET /metrics":                           "Prometheus metrics",
			"GET /api/directions":                    "Monitored directions and their stops",
			"GET /api/buses?direction={id}":          "Classified vehicles for a direction",
			"GET /api/schedule?direction={id}&limit": "Next scheduled departures",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check /api for available routes",
	})
}
