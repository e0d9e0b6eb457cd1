// Package export renders a snapshot history as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"obdlog/internal/models"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// TimeFormat is RFC 3339 with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Header returns the column names: Time followed by every reading kind.
func Header() []string {
	h := []string{"Time"}
	for _, k := range models.Kinds() {
		h = append(h, k.String())
	}
	return h
}

// Record renders one snapshot row. Absent readings are empty fields.
func Record(s models.Snapshot) []string {
	row := []string{s.Timestamp.Format(TimeFormat)}
	for _, k := range models.Kinds() {
		v, ok := s.Value(k)
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return row
}

// Encode writes the header and one row per snapshot, in order.
func Encode(w io.Writer, snapshots []models.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range snapshots {
		if err := cw.Write(Record(s)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Writer persists snapshot histories to files on Fs.
type Writer struct {
	Fs     afero.Fs
	Logger *zap.Logger
}

func NewWriter(fs afero.Fs, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Fs: fs, Logger: logger}
}

// WriteFile creates (or truncates) path and writes the CSV into it. Missing
// parent directories are created.
func (w *Writer) WriteFile(path string, snapshots []models.Snapshot) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := w.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	f, err := w.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := Encode(f, snapshots); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	w.Logger.Info("Exported session", zap.String("path", path), zap.Int("rows", len(snapshots)))
	return nil
}
