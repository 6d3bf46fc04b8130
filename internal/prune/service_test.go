package prune

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeNotificationStore struct {
	calls int
	count int64
	err   error
}

func (f *fakeNotificationStore) PruneExpired(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

type fakeDeliveryStore struct {
	calls  int
	cutoff time.Time
	count  int64
	err    error
}

func (f *fakeDeliveryStore) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.count, f.err
}

func newTestService(notifications *fakeNotificationStore, deliveries *fakeDeliveryStore, maxAge time.Duration) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, notifications, deliveries, "17 3 * * *", maxAge)
}

func TestRunPrunesBothStores(t *testing.T) {
	notifications := &fakeNotificationStore{count: 3}
	deliveries := &fakeDeliveryStore{count: 7}
	svc := newTestService(notifications, deliveries, 90*24*time.Hour)

	now := time.Date(2025, 6, 1, 3, 17, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if notifications.calls != 1 || deliveries.calls != 1 {
		t.Fatalf("calls = %d, %d", notifications.calls, deliveries.calls)
	}
	wantCutoff := now.Add(-90 * 24 * time.Hour)
	if !deliveries.cutoff.Equal(wantCutoff) {
		t.Fatalf("cutoff = %s, want %s", deliveries.cutoff, wantCutoff)
	}
}

func TestRunSkipsDeliveriesWithoutMaxAge(t *testing.T) {
	notifications := &fakeNotificationStore{}
	deliveries := &fakeDeliveryStore{}
	svc := newTestService(notifications, deliveries, 0)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if notifications.calls != 1 {
		t.Fatalf("notification calls = %d", notifications.calls)
	}
	if deliveries.calls != 0 {
		t.Fatalf("delivery calls = %d, want 0 with retention disabled", deliveries.calls)
	}
}

func TestRunCollectsErrors(t *testing.T) {
	notifications := &fakeNotificationStore{err: errors.New("notifications table locked")}
	deliveries := &fakeDeliveryStore{err: errors.New("deliveries table locked")}
	svc := newTestService(notifications, deliveries, 24*time.Hour)

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !errors.Is(err, notifications.err) || !errors.Is(err, deliveries.err) {
		t.Fatalf("error %v missing one of the store failures", err)
	}
	if deliveries.calls != 1 {
		t.Fatalf("delivery prune skipped after notification failure")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(log, &fakeNotificationStore{}, &fakeDeliveryStore{}, "not a cron spec", time.Hour)
	if err := svc.Start(); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestStartAndStop(t *testing.T) {
	svc := newTestService(&fakeNotificationStore{}, &fakeDeliveryStore{}, time.Hour)
	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
