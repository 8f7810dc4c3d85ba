package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"batteryeis/backend/services/ingest-service/internal/metrics"
	"batteryeis/backend/services/ingest-service/internal/models"
	redisstore "batteryeis/backend/services/ingest-service/internal/redis"
	"batteryeis/backend/services/ingest-service/internal/session"
	"batteryeis/backend/services/ingest-service/internal/sink"
	"batteryeis/backend/services/ingest-service/internal/spike"
	"batteryeis/backend/services/ingest-service/internal/thresholds"
	"batteryeis/backend/services/ingest-service/internal/validation"
)

// SinkFactory opens the log pair of a session.
type SinkFactory interface {
	Open(meta models.SessionMeta) (session.Sink, error)
}

// SinkFactoryFunc adapts a function to SinkFactory.
type SinkFactoryFunc func(meta models.SessionMeta) (session.Sink, error)

func (f SinkFactoryFunc) Open(meta models.SessionMeta) (session.Sink, error) {
	return f(meta)
}

// CSVSinks adapts the CSV factory.
func CSVSinks(f *sink.Factory) SinkFactory {
	return SinkFactoryFunc(func(meta models.SessionMeta) (session.Sink, error) {
		s, err := f.Open(meta)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// SessionJournal persists session lifecycle; failures are logged, never surfaced.
type SessionJournal interface {
	RecordStart(ctx context.Context, meta models.SessionMeta, startedAt time.Time) error
	RecordEnd(ctx context.Context, sessionID string, accepted, rejected int, endedAt time.Time) error
}

// ActiveSessionCache mirrors active sessions; failures are logged, never surfaced.
type ActiveSessionCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Delete(ctx context.Context, sessionID string) error
}

// IngestionService runs the session lifecycle: start, push, end.
type IngestionService struct {
	registry    *session.Registry
	sinks       SinkFactory
	thresholds  thresholds.Config
	journal     SessionJournal
	activeStore ActiveSessionCache
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// Option customizes IngestionService.
type Option func(*IngestionService)

// WithJournal enables the session journal.
func WithJournal(j SessionJournal) Option {
	return func(s *IngestionService) { s.journal = j }
}

// WithActiveStore enables the active session mirror.
func WithActiveStore(c ActiveSessionCache) Option {
	return func(s *IngestionService) { s.activeStore = c }
}

// WithMetrics enables Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *IngestionService) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *IngestionService) { s.now = now }
}

// NewIngestionService builds service.
func NewIngestionService(
	registry *session.Registry,
	sinks SinkFactory,
	cfg thresholds.Config,
	logger *zap.Logger,
	opts ...Option,
) *IngestionService {
	s := &IngestionService{
		registry:   registry,
		sinks:      sinks,
		thresholds: cfg,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession opens the session logs and registers the session.
func (s *IngestionService) StartSession(ctx context.Context, meta *models.SessionMeta) error {
	if meta == nil || strings.TrimSpace(meta.SessionID) == "" {
		return &DataFormatFault{Message: "Invalid metadata"}
	}
	for _, component := range []string{meta.BatteryID, meta.TestID} {
		if err := sink.CheckComponent(component); err != nil {
			return &DataFormatFault{Message: "Invalid metadata: " + err.Error(), Err: err}
		}
	}
	if _, exists := s.registry.Get(meta.SessionID); exists {
		return duplicateFault(meta.SessionID)
	}

	logSink, err := s.sinks.Open(*meta)
	if err != nil {
		return fmt.Errorf("start session %s: %w", meta.SessionID, err)
	}

	startedAt := s.now()
	state := session.NewState(*meta, logSink, startedAt)
	if err := s.registry.Create(meta.SessionID, state); err != nil {
		if closeErr := logSink.Close(); closeErr != nil {
			s.logger.Warn("failed to close sink of duplicate session", zap.String("session_id", meta.SessionID), zap.Error(closeErr))
		}
		return duplicateFault(meta.SessionID)
	}
	s.metrics.ActiveSessions(s.registry.Len())

	if s.journal != nil {
		if err := s.journal.RecordStart(ctx, *meta, startedAt); err != nil {
			s.logger.Warn("failed to journal session start", zap.String("session_id", meta.SessionID), zap.Error(err))
		}
	}
	if s.activeStore != nil {
		cacheErr := s.activeStore.Save(ctx, redisstore.ActiveSession{
			SessionID: meta.SessionID,
			BatteryID: meta.BatteryID,
			TestID:    meta.TestID,
			SoC:       meta.SoC,
			StartedAt: startedAt.UTC(),
		})
		if cacheErr != nil {
			s.logger.Warn("failed to cache active session", zap.String("session_id", meta.SessionID), zap.Error(cacheErr))
		}
	}

	s.logger.Info("session started",
		zap.String("session_id", meta.SessionID),
		zap.String("battery_id", meta.BatteryID),
		zap.String("test_id", meta.TestID),
		zap.Int("soc", meta.SoC),
	)
	return nil
}

// PushSample validates one sample, annotates temperature spikes and writes exactly
// one log line. Hard faults return an error and leave the session untouched.
func (s *IngestionService) PushSample(ctx context.Context, sample *models.Sample) (*models.IngestionResponse, error) {
	started := time.Now()
	defer s.metrics.ObservePush(started)

	var (
		state *session.State
		prior *validation.Prior
	)
	if sample != nil && strings.TrimSpace(sample.SessionID) != "" {
		if st, ok := s.registry.Get(sample.SessionID); ok {
			st.Lock()
			defer st.Unlock()
			if !st.Closed() {
				state = st
				meta := st.Meta()
				prior = &validation.Prior{
					LastRowIndex: st.LastRowIndex(),
					BatteryID:    meta.BatteryID,
					SoC:          meta.SoC,
				}
			}
		}
	}

	verdict := validation.Classify(sample, prior, s.thresholds)
	if verdict.Outcome == validation.HardFault {
		return nil, s.fault(sample, verdict)
	}

	meta := state.Meta()
	result, next := spike.Detect(state.LastTemperature(), sample.TDegC, s.thresholds.TemperatureDelta())
	state.SetTemperature(next)

	resp := &models.IngestionResponse{SessionStatus: models.SessionStatusActive}
	if result.IsSpike {
		resp.TemperatureSpike = true
		resp.DeltaT = result.DeltaT
		resp.SpikeDirection = result.Direction
		resp.CurrentT = sample.TDegC
		resp.FrequencyHz = sample.FrequencyHz
		resp.StateOfCharge = meta.SoC
		s.metrics.Spike(result.Direction)
		s.logger.Warn("temperature spike detected",
			zap.String("session_id", meta.SessionID),
			zap.String("battery_id", meta.BatteryID),
			zap.Int("row_index", sample.RowIndex),
			zap.Float64("delta_t", result.DeltaT),
			zap.String("direction", result.Direction),
		)
	}

	if verdict.Outcome == validation.SoftReject {
		if err := safeWrite(func() error {
			return state.Sink().WriteRejected(sample.RowIndex, verdict.Message, s.now())
		}); err != nil {
			return s.persistenceFailure(state, sample, resp, err), nil
		}
		state.Reject()
		resp.Status = models.StatusNACK
		resp.WarningMessage = verdict.Message
		s.metrics.Sample(metrics.OutcomeNACK)
		s.logger.Debug("sample rejected",
			zap.String("session_id", meta.SessionID),
			zap.Int("row_index", sample.RowIndex),
			zap.String("reason", verdict.Message),
		)
		return resp, nil
	}

	row := *sample
	if row.Timestamp.IsZero() {
		row.Timestamp = s.now()
	}
	if err := safeWrite(func() error { return state.Sink().WriteAccepted(&row) }); err != nil {
		return s.persistenceFailure(state, sample, resp, err), nil
	}
	state.Accept(sample.RowIndex)
	resp.Status = models.StatusACK
	if result.IsSpike {
		resp.WarningMessage = spikeWarning(sample, meta, result)
	}
	s.metrics.Sample(metrics.OutcomeACK)
	s.logger.Debug("sample saved", zap.String("session_id", meta.SessionID), zap.Int("row_index", sample.RowIndex))
	return resp, nil
}

// EndSession unregisters the session and closes its logs.
func (s *IngestionService) EndSession(ctx context.Context, meta *models.SessionMeta) error {
	if meta == nil || strings.TrimSpace(meta.SessionID) == "" {
		return &DataFormatFault{Message: "Invalid metadata"}
	}

	state, ok := s.registry.Remove(meta.SessionID)
	if !ok {
		return &DataFormatFault{Message: "Session not started"}
	}
	s.metrics.ActiveSessions(s.registry.Len())

	accepted, rejected := s.dispose(state)
	endedAt := s.now()

	if s.journal != nil {
		if err := s.journal.RecordEnd(ctx, meta.SessionID, accepted, rejected, endedAt); err != nil {
			s.logger.Warn("failed to journal session end", zap.String("session_id", meta.SessionID), zap.Error(err))
		}
	}
	if s.activeStore != nil {
		if err := s.activeStore.Delete(ctx, meta.SessionID); err != nil {
			s.logger.Warn("failed to delete active session cache", zap.String("session_id", meta.SessionID), zap.Error(err))
		}
	}

	stored := state.Meta()
	s.logger.Info("session ended",
		zap.String("session_id", stored.SessionID),
		zap.String("battery_id", stored.BatteryID),
		zap.String("test_id", stored.TestID),
		zap.Int("soc", stored.SoC),
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
	)
	return nil
}

// Close disposes sessions that were never ended.
func (s *IngestionService) Close() {
	for _, state := range s.registry.Drain() {
		s.dispose(state)
		s.logger.Warn("session closed on shutdown", zap.String("session_id", state.Meta().SessionID))
	}
	s.metrics.ActiveSessions(0)
}

// ActiveSessions returns number of registered sessions.
func (s *IngestionService) ActiveSessions() int {
	return s.registry.Len()
}

func (s *IngestionService) dispose(state *session.State) (accepted, rejected int) {
	state.Lock()
	defer state.Unlock()
	if err := state.Close(); err != nil {
		s.logger.Warn("failed to close session logs", zap.String("session_id", state.Meta().SessionID), zap.Error(err))
	}
	return state.Counts()
}

func (s *IngestionService) fault(sample *models.Sample, verdict validation.Classification) error {
	fields := []zap.Field{zap.String("reason", verdict.Message)}
	if sample != nil {
		fields = append(fields, zap.String("session_id", sample.SessionID), zap.Int("row_index", sample.RowIndex))
	}

	if verdict.Fault == validation.FaultDataFormat {
		s.metrics.Sample(metrics.OutcomeDataFormatFault)
		s.logger.Info("sample data format fault", fields...)
		return &DataFormatFault{Message: verdict.Message}
	}
	s.metrics.Sample(metrics.OutcomeValidationFault)
	s.logger.Info("sample validation fault", fields...)
	return &ValidationFault{Message: verdict.Message}
}

// persistenceFailure records a failed write in the rejected log and turns it into a NACK.
func (s *IngestionService) persistenceFailure(state *session.State, sample *models.Sample, resp *models.IngestionResponse, cause error) *models.IngestionResponse {
	meta := state.Meta()
	s.metrics.SinkFailure()
	s.metrics.Sample(metrics.OutcomeNACK)
	s.logger.Error("failed to write sample",
		zap.String("session_id", meta.SessionID),
		zap.Int("row_index", sample.RowIndex),
		zap.Error(cause),
	)

	if err := safeWrite(func() error {
		return state.Sink().WriteRejected(sample.RowIndex, cause.Error(), s.now())
	}); err != nil {
		s.logger.Error("failed to record write failure", zap.String("session_id", meta.SessionID), zap.Error(err))
	} else {
		state.Reject()
	}

	resp.Status = models.StatusNACK
	resp.WarningMessage = cause.Error()
	return resp
}

func safeWrite(write func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return write()
}

func duplicateFault(sessionID string) error {
	return &DataFormatFault{
		Message: fmt.Sprintf("Session %s already started", sessionID),
		Err:     session.ErrDuplicateSession,
	}
}

func spikeWarning(sample *models.Sample, meta models.SessionMeta, result spike.Result) string {
	return fmt.Sprintf("Temperature spike at row %d (battery %s, SoC %d%%): deltaT=%.2f %s, T=%.2f, f=%gHz",
		sample.RowIndex, meta.BatteryID, meta.SoC, result.DeltaT, result.Direction, sample.TDegC, sample.FrequencyHz)
}
