package reports

import (
	"context"
	"io"

	"github.com/rmax-ai/locklord/pkg/engine"
	"github.com/rmax-ai/locklord/pkg/journal"
)

type ReportType string

const (
	ReportTypeActivity   ReportType = "activity"
	ReportTypeAllocation ReportType = "allocation"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

type ReportParams struct {
	Limit    int    // activity entries to include; 0 means everything retained
	Severity string // activity filter; empty includes all severities
}

// LogSource provides activity entries, oldest first. *journal.Log
// satisfies it.
type LogSource interface {
	Recent(n int) []journal.Entry
}

// SnapshotSource provides the current entity state. *engine.Store
// satisfies it.
type SnapshotSource interface {
	Processes() []engine.ProcessView
	Resources() []engine.ResourceView
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}
