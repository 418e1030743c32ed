package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/opslens/runboard/internal/services/report"
	"github.com/opslens/runboard/internal/storage/blob"
)

const csvContentType = "text/csv; charset=utf-8"

// WriteCSV renders a report table as UTF-8 CSV with a single header row.
func WriteCSV(table *report.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Archiver copies generated CSV exports into blob storage when enabled.
// Archive failures are logged and never surfaced to the caller.
type Archiver struct {
	store   blob.Store
	enabled bool
	logger  *slog.Logger
	now     func() time.Time
}

func NewArchiver(store blob.Store, enabled bool, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, enabled: enabled, logger: logger, now: time.Now}
}

// Archive stores the CSV under exports/<mode>/<timestamp>.csv and returns
// the object key, or an empty string when archiving is disabled or fails.
func (a *Archiver) Archive(ctx context.Context, mode string, data []byte) string {
	if a == nil || !a.enabled || a.store == nil {
		return ""
	}

	key := fmt.Sprintf("exports/%s/%s.csv", mode, a.now().UTC().Format("20060102T150405Z"))
	_, err := a.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: csvContentType,
		Metadata:    map[string]string{"report-mode": mode},
	})
	if err != nil {
		a.logger.Warn("failed to archive export", "mode", mode, "key", key, "error", err)
		return ""
	}
	a.logger.Info("archived export", "mode", mode, "key", key, "bytes", len(data))
	return key
}
