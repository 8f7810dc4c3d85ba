package handlers

import (
	"net/http"

	"batteryeis/backend/services/ingest-service/internal/service"
)

// NewHealthHandler returns GET /health handler.
func NewHealthHandler(svc *service.IngestionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"active_sessions": svc.ActiveSessions(),
		})
	}
}
