package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/service"
	"batteryeis/backend/services/ingest-service/internal/session"
	"batteryeis/backend/services/ingest-service/internal/sink"
	"batteryeis/backend/services/ingest-service/internal/thresholds"
)

func newStream(t *testing.T) (*service.IngestionService, *Manager, string) {
	t.Helper()
	svc := service.NewIngestionService(
		session.NewRegistry(),
		service.CSVSinks(sink.NewFactory(t.TempDir())),
		thresholds.MustNew(5, 0.01, 1, 0, 10),
		zap.NewNop(),
	)
	manager := NewManager(time.Second)
	server := NewServer(manager, NewSampleProcessor(svc), time.Second, zap.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(server.HandleWS))
	t.Cleanup(func() {
		manager.CloseAll()
		ts.Close()
		svc.Close()
	})
	return svc, manager, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame interface{}) Reply {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	var err error
	if raw, ok := frame.(string); ok {
		err = conn.WriteMessage(websocket.TextMessage, []byte(raw))
	} else {
		err = conn.WriteJSON(frame)
	}
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestStreamPushesSamples(t *testing.T) {
	svc, _, url := newStream(t)
	meta := &models.SessionMeta{SessionID: "s1", BatteryID: "B1", TestID: "T1_50", SoC: 50}
	if err := svc.StartSession(context.Background(), meta); err != nil {
		t.Fatalf("start: %v", err)
	}
	conn := dial(t, url+"?session_id=s1")

	reply := roundTrip(t, conn, models.Sample{RowIndex: 0, FrequencyHz: 1000, ROhm: 0.05, TDegC: 25, RangeOhm: 3})
	if reply.Fault != nil || reply.Response == nil || reply.Response.Status != models.StatusACK {
		t.Fatalf("unexpected reply %+v", reply)
	}

	reply = roundTrip(t, conn, models.Sample{RowIndex: 1, FrequencyHz: 500, ROhm: 0.05, TDegC: 32, RangeOhm: 3})
	if reply.Response == nil || !reply.Response.TemperatureSpike || reply.Response.DeltaT != 7 {
		t.Fatalf("expected spike, got %+v", reply)
	}

	reply = roundTrip(t, conn, models.Sample{RowIndex: 1, FrequencyHz: 500, ROhm: 0.05, TDegC: 32, RangeOhm: 3})
	if reply.Fault == nil || reply.Fault.Fault != service.FaultValidation || reply.RowIndex != 1 {
		t.Fatalf("expected validation fault, got %+v", reply)
	}

	reply = roundTrip(t, conn, "{not json")
	if reply.Fault == nil || reply.Fault.Fault != service.FaultDataFormat || reply.RowIndex != -1 {
		t.Fatalf("expected data format fault, got %+v", reply)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	_, manager, url := newStream(t)
	conn := dial(t, url+"?session_id=ghost")

	reply := roundTrip(t, conn, models.Sample{RowIndex: 0, FrequencyHz: 1000})
	if reply.Fault == nil || reply.Fault.Fault != service.FaultDataFormat {
		t.Fatalf("expected data format fault, got %+v", reply)
	}
	if manager.Len() != 1 {
		t.Fatalf("expected one tracked connection, got %d", manager.Len())
	}
}

func TestStreamRequiresSessionID(t *testing.T) {
	_, _, url := newStream(t)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestManagerForgetsClosedConnections(t *testing.T) {
	_, manager, url := newStream(t)
	conn := dial(t, url+"?session_id=s1")
	roundTrip(t, conn, models.Sample{RowIndex: 0, FrequencyHz: 1})
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for manager.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection still tracked")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
