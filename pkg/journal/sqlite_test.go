package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "locklord-journal-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	sink, err := NewSQLiteSink(filepath.Join(tmpDir, "locklord.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestSQLiteSink_AppendAndRecent(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for i, msg := range []string{"one", "two", "three"} {
		e := Entry{
			Seq:      int64(i + 1),
			Time:     time.Now(),
			Severity: SeverityInfo,
			Message:  msg,
		}
		if err := sink.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := sink.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "two" || entries[1].Message != "three" {
		t.Errorf("expected append order oldest first, got %+v", entries)
	}
}

func TestSQLiteSink_SurvivesReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "locklord-journal-reopen")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)
	dbPath := filepath.Join(tmpDir, "locklord.db")

	sink, err := NewSQLiteSink(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteSink failed: %v", err)
	}
	e := Entry{Seq: 1, Time: time.Now(), Severity: SeverityWarning, Message: "durable"}
	if err := sink.Append(context.Background(), e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	sink.Close()

	reopened, err := NewSQLiteSink(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "durable" {
		t.Errorf("expected persisted entry, got %+v", entries)
	}
}
