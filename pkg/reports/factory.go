package reports

import (
	"fmt"

	"github.com/rmax-ai/locklord/pkg/engine"
)

// NewReportGenerator creates a report generator over the given store.
func NewReportGenerator(reportType ReportType, format ReportFormat, store *engine.Store) (Generator, error) {
	switch format {
	case ReportFormatCSV, ReportFormatJSON:
	default:
		return nil, fmt.Errorf("unknown report format: %s", format)
	}

	switch reportType {
	case ReportTypeActivity:
		return NewActivityReport(store.Log(), format), nil
	case ReportTypeAllocation:
		return NewAllocationReport(store, format), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}
