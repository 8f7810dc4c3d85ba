package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batteryeis/backend/services/eis-producer/internal/models"
)

func TestIngestClient(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing content type on %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/sessions/start", "/sessions/end":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/sessions/push":
			var sample models.Sample
			_ = json.NewDecoder(r.Body).Decode(&sample)
			if sample.RowIndex == 9 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"fault":"ValidationFault","message":"RowIndex 9 must be greater than last accepted row 9"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"NACK","session_status":"active","warning_message":"bad R"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewIngestClient(srv.URL+"/", NewDefaultHTTPClient(2*time.Second))
	ctx := context.Background()
	meta := models.SessionMeta{SessionID: "s1", BatteryID: "B1", TestID: "T1_50", SoC: 50}

	if err := client.StartSession(ctx, meta); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := client.PushSample(ctx, models.Sample{SessionID: "s1", RowIndex: 0, FrequencyHz: 1})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if resp.Status != "NACK" || resp.WarningMessage != "bad R" {
		t.Fatalf("resp = %+v", resp)
	}

	_, err = client.PushSample(ctx, models.Sample{SessionID: "s1", RowIndex: 9})
	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected FaultError, got %v", err)
	}
	if fault.Type != "ValidationFault" || fault.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("fault = %+v", fault)
	}

	if err := client.EndSession(ctx, meta); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(gotPaths) != 4 || gotPaths[3] != "/sessions/end" {
		t.Fatalf("paths = %v", gotPaths)
	}
}

func TestIngestClientUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	}))
	defer srv.Close()

	client := NewIngestClient(srv.URL, NewDefaultHTTPClient(time.Second))
	err := client.StartSession(context.Background(), models.SessionMeta{SessionID: "s1"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var fault *FaultError
	if errors.As(err, &fault) {
		t.Fatalf("500 without fault body must not be a FaultError")
	}
}
