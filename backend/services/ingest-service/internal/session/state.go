package session

import (
	"sync"
	"time"

	"batteryeis/backend/services/ingest-service/internal/models"
	"batteryeis/backend/services/ingest-service/internal/spike"
)

// Sink receives the log lines of one session.
type Sink interface {
	WriteAccepted(sample *models.Sample) error
	WriteRejected(rowIndex int, reason string, at time.Time) error
	Close() error
}

// State is the mutable record of an active session. Callers hold Lock for the
// whole read-modify-write of a push; accessors below assume it is held.
type State struct {
	mu sync.Mutex

	meta            models.SessionMeta
	startedAt       time.Time
	lastRowIndex    int
	lastTemperature spike.Reading
	sink            Sink
	accepted        int
	rejected        int
	closed          bool
}

// NewState builds state for a freshly started session.
func NewState(meta models.SessionMeta, sink Sink, startedAt time.Time) *State {
	return &State{
		meta:         meta,
		startedAt:    startedAt,
		lastRowIndex: -1,
		sink:         sink,
	}
}

func (s *State) Lock() { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

// Meta returns identity fields; they never change so no lock is needed.
func (s *State) Meta() models.SessionMeta { return s.meta }

// StartedAt returns when the session was registered.
func (s *State) StartedAt() time.Time { return s.startedAt }

func (s *State) LastRowIndex() int { return s.lastRowIndex }
func (s *State) LastTemperature() spike.Reading { return s.lastTemperature }
func (s *State) Sink() Sink { return s.sink }
func (s *State) Closed() bool { return s.closed }

// SetTemperature records the reading used for the next spike comparison.
func (s *State) SetTemperature(r spike.Reading) {
	s.lastTemperature = r
}

// Accept advances the row cursor after a successful accepted-log write.
func (s *State) Accept(rowIndex int) {
	s.lastRowIndex = rowIndex
	s.accepted++
}

// Reject counts a line written to the rejected log.
func (s *State) Reject() {
	s.rejected++
}

// Counts returns accepted and rejected totals.
func (s *State) Counts() (accepted, rejected int) {
	return s.accepted, s.rejected
}

// Close marks the state closed and releases the sink once.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.sink == nil {
		return nil
	}
	return s.sink.Close()
}
