package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rmax-ai/locklord/pkg/journal"
)

// ActivityReport exports the activity log, optionally filtered by
// severity.
type ActivityReport struct {
	log    LogSource
	format ReportFormat
}

// NewActivityReport creates an activity log report generator.
func NewActivityReport(log LogSource, format ReportFormat) *ActivityReport {
	return &ActivityReport{log: log, format: format}
}

func (r *ActivityReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	entries := r.log.Recent(params.Limit)

	if params.Severity != "" {
		filtered := make([]journal.Entry, 0, len(entries))
		for _, e := range entries {
			if string(e.Severity) == params.Severity {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if r.format == ReportFormatJSON {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(entries); err != nil {
			return nil, fmt.Errorf("failed to encode entries: %w", err)
		}
		return buf, nil
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"seq", "timestamp", "severity", "message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.Seq, 10),
			e.Time.Format(time.RFC3339),
			string(e.Severity),
			e.Message,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	return buf, nil
}
