package handlers

import (
	"encoding/json"
	"net/http"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/service"
)

func faultStatus(name string) int {
	if name == service.FaultValidation {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFault(w http.ResponseWriter, err error) bool {
	name, message, ok := service.AsFault(err)
	if !ok {
		return false
	}
	writeJSON(w, faultStatus(name), models.FaultBody{Fault: name, Message: message})
	return true
}
