package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/service"
)

const maxBodyBytes = 1 << 20

// SessionsHandler exposes the ingestion operations over HTTP.
type SessionsHandler struct {
	svc    *service.IngestionService
	logger *zap.Logger
}

// NewSessionsHandler builds handler set.
func NewSessionsHandler(svc *service.IngestionService, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleStart handles POST /sessions/start.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var meta *models.SessionMeta
	if !h.decode(w, r, &meta) {
		return
	}
	if err := h.svc.StartSession(r.Context(), meta); err != nil {
		h.fail(w, "start session failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

// HandlePush handles POST /sessions/push.
func (h *SessionsHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	var sample *models.Sample
	if !h.decode(w, r, &sample) {
		return
	}
	resp, err := h.svc.PushSample(r.Context(), sample)
	if err != nil {
		h.fail(w, "push sample failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleEnd handles POST /sessions/end.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var meta *models.SessionMeta
	if !h.decode(w, r, &meta) {
		return
	}
	if err := h.svc.EndSession(r.Context(), meta); err != nil {
		h.fail(w, "end session failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

// decode leaves a JSON null as a nil pointer so the service reports it as a fault.
func (h *SessionsHandler) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, models.FaultBody{Fault: service.FaultDataFormat, Message: "invalid json"})
		return false
	}
	return true
}

func (h *SessionsHandler) fail(w http.ResponseWriter, msg string, err error) {
	if writeFault(w, err) {
		return
	}
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
