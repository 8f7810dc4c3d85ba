// Package sink owns the two append-only CSV logs of a session.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"batteryeis/backend/services/ingest-service/internal/models"
)

const (
	SessionFileName = "session.csv"
	RejectsFileName = "rejects.csv"

	TimestampLayout = "2006-01-02 15:04:05"
)

var (
	sessionHeader = []string{"RowIndex", "FrequencyHz", "R_ohm", "X_ohm", "T_degC", "Range_ohm", "Timestamp"}
	rejectsHeader = []string{"RowIndex", "Reason", "Timestamp"}
)

// ErrUnsafeComponent is returned for identifiers that would escape the data root.
var ErrUnsafeComponent = errors.New("sink: unsafe path component")

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("sink: closed")

// CheckComponent reports whether an identifier can be used as a directory name.
func CheckComponent(v string) error {
	if v == "." || v == ".." || strings.ContainsAny(v, `/\`) || strings.ContainsRune(v, 0) {
		return fmt.Errorf("%w: %q", ErrUnsafeComponent, v)
	}
	return nil
}

// SessionDir returns <root>/<battery>/<test>/<soc>%.
func SessionDir(root string, meta models.SessionMeta) string {
	return filepath.Join(root, meta.BatteryID, meta.TestID, fmt.Sprintf("%d%%", meta.SoC))
}

// Factory opens CSV sinks below Root.
type Factory struct {
	Root string
}

// NewFactory returns factory rooted at dir.
func NewFactory(root string) *Factory {
	return &Factory{Root: root}
}

// CSVSink writes accepted rows to session.csv and rejects to rejects.csv.
// Every write is flushed before returning.
type CSVSink struct {
	mu       sync.Mutex
	dir      string
	accepted *logFile
	rejected *logFile
	closed   bool
}

type logFile struct {
	file   *os.File
	writer *csv.Writer
}

// Open creates the session directory and both logs, writing headers to empty files.
func (f *Factory) Open(meta models.SessionMeta) (*CSVSink, error) {
	dir := SessionDir(f.Root, meta)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: create session dir: %w", err)
	}

	accepted, err := openLog(filepath.Join(dir, SessionFileName), sessionHeader)
	if err != nil {
		return nil, err
	}
	rejected, err := openLog(filepath.Join(dir, RejectsFileName), rejectsHeader)
	if err != nil {
		accepted.file.Close()
		return nil, err
	}

	return &CSVSink{dir: dir, accepted: accepted, rejected: rejected}, nil
}

func openLog(path string, header []string) (*logFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", filepath.Base(path), err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("sink: stat %s: %w", filepath.Base(path), err)
	}

	lf := &logFile{file: file, writer: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := lf.write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("sink: write header %s: %w", filepath.Base(path), err)
		}
	}
	return lf, nil
}

func (l *logFile) write(record []string) error {
	if err := l.writer.Write(record); err != nil {
		return err
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Dir returns the session directory.
func (s *CSVSink) Dir() string {
	return s.dir
}

// WriteAccepted appends one data row to session.csv.
func (s *CSVSink) WriteAccepted(sample *models.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.accepted.write([]string{
		strconv.Itoa(sample.RowIndex),
		formatFloat(sample.FrequencyHz),
		formatFloat(sample.ROhm),
		formatFloat(sample.XOhm),
		formatFloat(sample.TDegC),
		formatFloat(sample.RangeOhm),
		sample.Timestamp.Format(TimestampLayout),
	})
}

// WriteRejected appends one line to rejects.csv.
func (s *CSVSink) WriteRejected(rowIndex int, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.rejected.write([]string{strconv.Itoa(rowIndex), reason, at.Format(TimestampLayout)})
}

// Close releases both files. Both are attempted even if the first fails; later calls are no-ops.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.accepted.file.Close(), s.rejected.file.Close())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
