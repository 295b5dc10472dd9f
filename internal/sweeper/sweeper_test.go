package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"retail-catalog/internal/models"
	"retail-catalog/internal/repository"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func add(t *testing.T, store *repository.MemoryProductRepository, name string, expiry time.Time) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, BasePrice: 5, MinPrice: 1, MaxPrice: 9, ExpiryDate: expiry}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSweepRemovesExactlyExpired(t *testing.T) {
	store := repository.NewMemoryProductRepository()
	add(t, store, "past", now.Add(-time.Minute))
	add(t, store, "boundary", now)
	add(t, store, "future", now.Add(time.Second))

	s := New(store, nil, zaptest.NewLogger(t), time.Minute)
	s.now = func() time.Time { return now }

	removed, err := s.SweepOnce(context.Background())
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 removed, got %d, %v", removed, err)
	}

	// Created after the sweep with a past expiry: survives until the next one.
	late := add(t, store, "late", now.Add(-time.Hour))
	if _, err := store.FindByID(context.Background(), late.IDHex()); err != nil {
		t.Fatalf("late product should exist until the next sweep: %v", err)
	}

	removed, _ = s.SweepOnce(context.Background())
	if removed != 1 {
		t.Fatalf("next sweep should remove the late product, removed %d", removed)
	}
	left, _ := store.Snapshot(context.Background())
	if len(left) != 1 || left[0].Name != "future" {
		t.Fatalf("unexpected survivors: %+v", left)
	}

	if removed, _ := s.SweepOnce(context.Background()); removed != 0 {
		t.Fatalf("empty sweep should remove nothing, removed %d", removed)
	}
}

type failingStore struct{ calls atomic.Int32 }

func (f *failingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return 0, errors.New("no reachable servers")
}

func TestSweepSurvivesStoreErrors(t *testing.T) {
	store := &failingStore{}
	s := New(store, nil, zaptest.NewLogger(t), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	if store.calls.Load() < 2 {
		t.Fatalf("sweeper should keep ticking after failures, got %d calls", store.calls.Load())
	}
}

type stubLocker struct {
	acquired bool
	err      error
	unlocked atomic.Bool
}

func (l *stubLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func(context.Context) error {
		l.unlocked.Store(true)
		return nil
	}, true, nil
}

func TestTickHonoursLock(t *testing.T) {
	cases := []struct {
		name      string
		locker    *stubLocker
		wantSwept bool
	}{
		{"acquired", &stubLocker{acquired: true}, true},
		{"held elsewhere", &stubLocker{acquired: false}, false},
		{"backend down", &stubLocker{err: errors.New("redis: connection refused")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewMemoryProductRepository()
			add(t, store, "expired", now.Add(-time.Hour))

			s := New(store, tc.locker, zaptest.NewLogger(t), time.Minute)
			s.now = func() time.Time { return now }
			s.tick(context.Background())

			left, _ := store.Snapshot(context.Background())
			if swept := len(left) == 0; swept != tc.wantSwept {
				t.Fatalf("swept=%v, want %v", swept, tc.wantSwept)
			}
			if tc.locker.acquired && !tc.locker.unlocked.Load() {
				t.Fatalf("lock was not released")
			}
		})
	}
}
