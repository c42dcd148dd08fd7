package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// AllocationReport exports the current allocation state: one row per
// resource with its holder and wait queue, then one row per process
// with its held set.
type AllocationReport struct {
	src    SnapshotSource
	format ReportFormat
}

// NewAllocationReport creates an allocation state report generator.
func NewAllocationReport(src SnapshotSource, format ReportFormat) *AllocationReport {
	return &AllocationReport{src: src, format: format}
}

func (r *AllocationReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	processes := r.src.Processes()
	resources := r.src.Resources()

	if r.format == ReportFormatJSON {
		buf := &bytes.Buffer{}
		payload := map[string]interface{}{
			"processes": processes,
			"resources": resources,
		}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return buf, nil
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"kind", "id", "detail", "held_by_or_priority", "queue_or_waits"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, res := range resources {
		row := []string{
			"resource",
			res.ID,
			res.Type + "/" + res.Status,
			res.HeldBy,
			strings.Join(res.WaitQueue, " "),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write resource row: %w", err)
		}
	}
	for _, proc := range processes {
		row := []string{
			"process",
			proc.ID,
			strings.Join(proc.Held, " "),
			string(proc.Priority),
			strings.Join(proc.WaitingFor, " "),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write process row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	return buf, nil
}
