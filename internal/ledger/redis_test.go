package ledger

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test"), mr
}

func TestRedisLedgerConformance(t *testing.T) {
	store, _ := newTestRedisStore(t)
	l, err := store.ForChannel(context.Background(), "@chan", "")
	if err != nil {
		t.Fatalf("ForChannel: %v", err)
	}
	exerciseLedger(t, l)
}

func TestRedisLedgerKeyLayout(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	l, _ := store.ForChannel(ctx, "@chan", "")
	if err := l.Merge(ctx, []Record{{VideoID: "v1", UploadDate: "3 hours ago", Status: StatusSuccess}}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := mr.HGet("test:ledger:@chan:latest", "v1"); got != "SUCCESS" {
		t.Fatalf("latest hash = %q", got)
	}
	if !mr.Exists("test:ledger:@chan:records") {
		t.Fatal("records hash missing")
	}
	if got, _ := mr.Get("test:ledger:@chan:revision"); got != "1" {
		t.Fatalf("revision counter = %q", got)
	}
}

func TestOpenRedisFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := OpenRedis(context.Background(), "redis://"+addr+"/0", "x"); err == nil {
		t.Fatal("expected ping failure")
	}
}
