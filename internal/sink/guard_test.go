package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

type recordingSink struct {
	calls []domain.Message
	err   error
}

func (s *recordingSink) Record(ctx context.Context, msg domain.Message) error {
	s.calls = append(s.calls, msg)
	return s.err
}

func newTestRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestDedupGuardDropsDuplicates(t *testing.T) {
	t.Parallel()

	_, client := newTestRedisClient(t)
	inner := &recordingSink{}

	guard, err := NewDedupGuard(inner, client, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	msg := testMessage()
	if err := guard.Record(context.Background(), msg); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}
	if err := guard.Record(context.Background(), msg); err != nil {
		t.Fatalf("duplicate Record() error = %v", err)
	}

	if len(inner.calls) != 1 {
		t.Fatalf("inner sink called %d times, want 1", len(inner.calls))
	}
}

func TestDedupGuardDistinctIDsPassThrough(t *testing.T) {
	t.Parallel()

	_, client := newTestRedisClient(t)
	inner := &recordingSink{}

	guard, err := NewDedupGuard(inner, client, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	first := testMessage()
	second := testMessage()
	second.WhatsAppID = "wamid.2"

	if err := guard.Record(context.Background(), first); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := guard.Record(context.Background(), second); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if len(inner.calls) != 2 {
		t.Fatalf("inner sink called %d times, want 2", len(inner.calls))
	}
}

func TestDedupGuardFallsThroughWhenRedisDown(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedisClient(t)
	inner := &recordingSink{}

	guard, err := NewDedupGuard(inner, client, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	mr.Close()

	if err := guard.Record(context.Background(), testMessage()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("inner sink called %d times, want 1", len(inner.calls))
	}
}

func TestDedupGuardReleasesKeyOnSinkFailure(t *testing.T) {
	t.Parallel()

	_, client := newTestRedisClient(t)
	inner := &recordingSink{err: errors.New("sink unavailable")}

	guard, err := NewDedupGuard(inner, client, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewDedupGuard() error = %v", err)
	}

	msg := testMessage()
	if err := guard.Record(context.Background(), msg); err == nil {
		t.Fatal("expected sink error to propagate")
	}

	// The redelivery must reach the sink again after a failed write.
	inner.err = nil
	if err := guard.Record(context.Background(), msg); err != nil {
		t.Fatalf("redelivered Record() error = %v", err)
	}
	if len(inner.calls) != 2 {
		t.Fatalf("inner sink called %d times, want 2", len(inner.calls))
	}
}

func TestNewDedupGuardValidation(t *testing.T) {
	t.Parallel()

	_, client := newTestRedisClient(t)

	if _, err := NewDedupGuard(nil, client, 0, nil); err == nil {
		t.Fatal("expected error for nil inner sink")
	}
	if _, err := NewDedupGuard(&recordingSink{}, nil, 0, nil); err == nil {
		t.Fatal("expected error for nil redis client")
	}
}
