// Package producer streams export files into the ingest service, one session per file.
package producer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"batteryeis/backend/services/eis-producer/internal/clients"
	"batteryeis/backend/services/eis-producer/internal/csvsource"
	"batteryeis/backend/services/eis-producer/internal/models"
)

// Ingest is the remote session API.
type Ingest interface {
	StartSession(ctx context.Context, meta models.SessionMeta) error
	PushSample(ctx context.Context, sample models.Sample) (*models.IngestionResponse, error)
	EndSession(ctx context.Context, meta models.SessionMeta) error
}

// Summary counts what a run did.
type Summary struct {
	Files    int
	Skipped  int
	Acked    int
	Nacked   int
	Faults   int
	BadLines int
	Spikes   int
}

// Producer reads files and pushes their rows.
type Producer struct {
	ingest Ingest
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New builds producer.
func New(ingest Ingest, logger *zap.Logger) *Producer {
	return &Producer{
		ingest: ingest,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run processes every *.csv in dir in name order. Per-file failures are logged and
// the run moves on; only a cancelled context or an unreadable dir stops it.
func (p *Producer) Run(ctx context.Context, dir string) (Summary, error) {
	var sum Summary

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return sum, fmt.Errorf("producer: list %s: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return sum, fmt.Errorf("producer: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := p.runFile(ctx, path, &sum); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Skipped++
			p.logger.Warn("file skipped", zap.String("file", filepath.Base(path)), zap.Error(err))
			continue
		}
		sum.Files++
	}

	p.logger.Info("all files processed",
		zap.Int("files", sum.Files),
		zap.Int("skipped", sum.Skipped),
		zap.Int("acked", sum.Acked),
		zap.Int("nacked", sum.Nacked),
		zap.Int("faults", sum.Faults),
	)
	return sum, nil
}

func (p *Producer) runFile(ctx context.Context, path string, sum *Summary) error {
	fileMeta, err := csvsource.ParseFileName(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	meta := models.SessionMeta{
		SessionID: p.newID(),
		BatteryID: fileMeta.BatteryID,
		TestID:    fileMeta.TestID,
		SoC:       fileMeta.SoC,
	}
	log := p.logger.With(zap.String("session_id", meta.SessionID), zap.String("file", filepath.Base(path)))

	if err := p.ingest.StartSession(ctx, meta); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	log.Info("session started")

	reader := csvsource.NewReader(f)
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr *csvsource.RowError
			if !errors.As(err, &rowErr) {
				log.Error("read failed, ending session early", zap.Error(err))
				break
			}
			sum.BadLines++
			log.Warn("unparsable line", zap.Int("row_index", rowErr.Index), zap.Error(rowErr.Err))
			continue
		}
		p.push(ctx, log, meta, row, sum)
		if ctx.Err() != nil {
			break
		}
	}

	endCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		endCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := p.ingest.EndSession(endCtx, meta); err != nil {
		log.Warn("end session failed", zap.Error(err))
		return nil
	}
	log.Info("session ended")
	return nil
}

func (p *Producer) push(ctx context.Context, log *zap.Logger, meta models.SessionMeta, row csvsource.Row, sum *Summary) {
	resp, err := p.ingest.PushSample(ctx, models.Sample{
		SessionID:   meta.SessionID,
		RowIndex:    row.Index,
		FrequencyHz: row.FrequencyHz,
		ROhm:        row.ROhm,
		XOhm:        row.XOhm,
		TDegC:       row.TDegC,
		RangeOhm:    row.RangeOhm,
		Timestamp:   p.now(),
	})
	if err != nil {
		sum.Faults++
		var fault *clients.FaultError
		if errors.As(err, &fault) {
			log.Warn("sample fault", zap.Int("row_index", row.Index), zap.String("fault", fault.Type), zap.String("message", fault.Message))
			return
		}
		log.Error("push failed", zap.Int("row_index", row.Index), zap.Error(err))
		return
	}

	fields := []zap.Field{zap.Int("row_index", row.Index), zap.String("status", resp.Status)}
	if resp.WarningMessage != "" {
		fields = append(fields, zap.String("warning", resp.WarningMessage))
	}
	if resp.Status == "ACK" {
		sum.Acked++
	} else {
		sum.Nacked++
	}
	if resp.TemperatureSpike {
		sum.Spikes++
		fields = append(fields, zap.Float64("delta_t", resp.DeltaT), zap.String("direction", resp.SpikeDirection))
	}
	log.Debug("sample pushed", fields...)
}
