package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// blockingService runs until cancelled, counting its starts.
type blockingService struct {
	name   string
	starts atomic.Int32
	err    error
}

func (s *blockingService) Name() string { return s.name }

func (s *blockingService) Run(ctx context.Context) error {
	s.starts.Add(1)
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSupervisor_StartAndShutdown(t *testing.T) {
	sup := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())

	svc := &blockingService{name: "beacon"}
	sup.Start(ctx, svc)

	waitFor(t, time.Second, func() bool { return sup.IsRunning("beacon") })

	cancel()
	sup.Wait()

	if sup.IsRunning("beacon") {
		t.Error("service should be stopped after shutdown")
	}
	if got := svc.starts.Load(); got != 1 {
		t.Errorf("starts = %d, want 1", got)
	}
}

func TestSupervisor_StartIsIdempotent(t *testing.T) {
	sup := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &blockingService{name: "socket"}
	sup.Start(ctx, svc)
	sup.Start(ctx, svc)
	sup.Start(ctx, svc)

	waitFor(t, time.Second, func() bool { return svc.starts.Load() >= 1 })
	// Give duplicate starts a moment to (incorrectly) fire.
	time.Sleep(20 * time.Millisecond)

	if got := svc.starts.Load(); got != 1 {
		t.Errorf("starts = %d, want 1", got)
	}
}

func TestSupervisor_FailingServiceDoesNotPropagate(t *testing.T) {
	sup := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &blockingService{name: "broken", err: errors.New("bind failed")}
	sup.Start(ctx, svc)

	// The failure is absorbed; the supervisor just forgets the service.
	waitFor(t, time.Second, func() bool { return !sup.IsRunning("broken") })
}

func TestSupervisor_Restart(t *testing.T) {
	sup := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &blockingService{name: "socket"}
	sup.Start(ctx, svc)
	waitFor(t, time.Second, func() bool { return sup.IsRunning("socket") })

	if err := sup.Restart(ctx, svc); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}

	waitFor(t, time.Second, func() bool { return svc.starts.Load() == 2 })
	if !sup.IsRunning("socket") {
		t.Error("service should be running after restart")
	}
}

func TestSupervisor_RestartNotRunning(t *testing.T) {
	sup := NewSupervisor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &blockingService{name: "socket"}
	if err := sup.Restart(ctx, svc); err != nil {
		t.Fatalf("Restart() of stopped service should start it, got %v", err)
	}
	waitFor(t, time.Second, func() bool { return sup.IsRunning("socket") })
}

func TestFixedAndRealClock(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var clock Clock = TestClock{FixedTime: fixed}
	if !clock.Now().Equal(fixed) {
		t.Error("TestClock should return the fixed time")
	}

	clock = RealClock{}
	if time.Since(clock.Now()) > time.Minute {
		t.Error("RealClock should return roughly now")
	}
}

func TestStepClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewStepClock(start, time.Second)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("first Now() = %v, want %v", got, start)
	}
	if got := clock.Now(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("second Now() = %v, want %v", got, start.Add(time.Second))
	}
}
