package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rmax-ai/locklord/pkg/journal"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSink(client, "test:journal", 5)
}

func TestSink_AppendAndRecent(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for i, msg := range []string{"one", "two", "three"} {
		e := journal.Entry{
			Seq:      int64(i + 1),
			Time:     time.Now().UTC(),
			Severity: journal.SeverityInfo,
			Message:  msg,
		}
		if err := sink.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := sink.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "one" || entries[2].Message != "three" {
		t.Errorf("expected append order oldest first, got %+v", entries)
	}
}

func TestSink_TrimsToCapacity(t *testing.T) {
	sink := newTestSink(t) // capacity 5
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		e := journal.Entry{Seq: int64(i), Time: time.Now().UTC(), Severity: journal.SeverityInfo, Message: "m"}
		if err := sink.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := sink.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 retained entries, got %d", len(entries))
	}
	if entries[0].Seq != 4 || entries[4].Seq != 8 {
		t.Errorf("expected seqs 4..8 retained, got %+v", entries)
	}
}
