package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/service"
	"batteryeis/backend/services/ingest-service/internal/session"
	"batteryeis/backend/services/ingest-service/internal/sink"
	"batteryeis/backend/services/ingest-service/internal/thresholds"
)

func newHandler(t *testing.T) (*SessionsHandler, *service.IngestionService) {
	t.Helper()
	svc := service.NewIngestionService(
		session.NewRegistry(),
		service.CSVSinks(sink.NewFactory(t.TempDir())),
		thresholds.MustNew(5, 0.01, 1, 0, 10),
		zap.NewNop(),
	)
	t.Cleanup(svc.Close)
	return NewSessionsHandler(svc, zap.NewNop()), svc
}

func call(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const startBody = `{"session_id":"s1","battery_id":"B1","test_id":"T1_50","soc":50}`

func TestSessionLifecycleOverHTTP(t *testing.T) {
	h, svc := newHandler(t)

	if rec := call(h.HandleStart, startBody); rec.Code != http.StatusAccepted {
		t.Fatalf("start status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.ActiveSessions() != 1 {
		t.Fatalf("session not registered")
	}

	rec := call(h.HandlePush, `{"session_id":"s1","row_index":0,"frequency_hz":1000,"r_ohm":0.05,"x_ohm":0.01,"t_degc":25,"range_ohm":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("push status %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.IngestionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != models.StatusACK {
		t.Fatalf("status = %s", resp.Status)
	}

	rec = call(h.HandlePush, `{"session_id":"s1","row_index":1,"frequency_hz":500,"r_ohm":5,"t_degc":32,"range_ohm":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("push status %d", rec.Code)
	}
	resp = models.IngestionResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != models.StatusNACK || !resp.TemperatureSpike || resp.DeltaT != 7 || resp.SpikeDirection != models.SpikeRise {
		t.Fatalf("unexpected response %+v", resp)
	}

	if rec := call(h.HandleEnd, startBody); rec.Code != http.StatusAccepted {
		t.Fatalf("end status %d", rec.Code)
	}
}

func TestFaultResponses(t *testing.T) {
	h, _ := newHandler(t)
	if rec := call(h.HandleStart, startBody); rec.Code != http.StatusAccepted {
		t.Fatalf("start status %d", rec.Code)
	}
	if rec := call(h.HandlePush, `{"session_id":"s1","row_index":4,"frequency_hz":1000,"r_ohm":0.05,"t_degc":25,"range_ohm":3}`); rec.Code != http.StatusOK {
		t.Fatalf("push status %d", rec.Code)
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		status  int
		fault   string
	}{
		{name: "malformed json", handler: h.HandlePush, body: `{`, status: http.StatusBadRequest, fault: service.FaultDataFormat},
		{name: "null sample", handler: h.HandlePush, body: `null`, status: http.StatusBadRequest, fault: service.FaultDataFormat},
		{name: "unknown session", handler: h.HandlePush, body: `{"session_id":"zz","row_index":0,"frequency_hz":1}`, status: http.StatusBadRequest, fault: service.FaultDataFormat},
		{name: "row not increasing", handler: h.HandlePush, body: `{"session_id":"s1","row_index":4,"frequency_hz":1000,"r_ohm":0.05,"range_ohm":3}`, status: http.StatusUnprocessableEntity, fault: service.FaultValidation},
		{name: "zero frequency", handler: h.HandlePush, body: `{"session_id":"s1","row_index":5,"frequency_hz":0}`, status: http.StatusUnprocessableEntity, fault: service.FaultValidation},
		{name: "null meta", handler: h.HandleStart, body: `null`, status: http.StatusBadRequest, fault: service.FaultDataFormat},
		{name: "duplicate start", handler: h.HandleStart, body: startBody, status: http.StatusBadRequest, fault: service.FaultDataFormat},
		{name: "end unknown", handler: h.HandleEnd, body: `{"session_id":"nope"}`, status: http.StatusBadRequest, fault: service.FaultDataFormat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(tc.handler, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			var body models.FaultBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Fault != tc.fault || body.Message == "" {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}

func TestHealthReportsActiveSessions(t *testing.T) {
	h, svc := newHandler(t)
	call(h.HandleStart, startBody)

	rec := httptest.NewRecorder()
	NewHealthHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body struct {
		Status         string `json:"status"`
		ActiveSessions int    `json:"active_sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.ActiveSessions != 1 {
		t.Fatalf("body = %+v", body)
	}
}
