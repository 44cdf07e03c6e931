package settings

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_TTLAndInvalidate(t *testing.T) {
	kv := newMemKV()
	svc := NewService(kv, time.Minute)
	ctx := context.Background()
	if _, err := svc.SaveData(ctx, Data{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	now := time.Unix(1_700_000_000, 0)
	c := svc.Cache()
	c.Now = func() time.Time { return now }
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	before := kv.reads()
	if _, err := c.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if kv.reads() != before {
		t.Fatalf("fresh cache must not read the store")
	}

	now = now.Add(time.Minute)
	if _, err := c.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if kv.reads() != before+1 {
		t.Fatalf("expired cache must read the store once, reads=%d", kv.reads()-before)
	}

	c.Invalidate()
	if _, err := c.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if kv.reads() != before+2 {
		t.Fatalf("invalidated cache must read the store")
	}
}

func TestCache_EmptyStoreNotCached(t *testing.T) {
	kv := newMemKV()
	c := NewCache(func(ctx context.Context) (*Settings, error) {
		_, _, _ = kv.Get(ctx, StorageKey)
		return nil, nil
	}, 0)
	if c.TTL != DefaultCacheTTL {
		t.Fatalf("ttl = %v", c.TTL)
	}
	for i := 0; i < 2; i++ {
		st, err := c.Get(context.Background())
		if err != nil || st == nil || st.Data.AdminRestriction != UserLevelAdmin {
			t.Fatalf("expected defaults, got %+v %v", st, err)
		}
	}
	if kv.reads() != 2 {
		t.Fatalf("defaults must not be cached, reads=%d", kv.reads())
	}
}

func TestCache_LoadError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(func(context.Context) (*Settings, error) { return nil, boom }, 0)
	if _, err := c.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}
