// Package service defines the lifecycle contract for the agent's
// long-running services and the supervisor that launches them.
package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Service is a long-running agent service. Run blocks until the
// context is cancelled or the service fails.
type Service interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor launches services and tracks their goroutines. Start
// requests are fire-and-forget: the supervisor does not wait for
// readiness and a service's failure is logged, never propagated to
// whoever requested the start.
type Supervisor struct {
	logger *zap.Logger

	mu      sync.Mutex
	running map[string]*runningService
	wg      sync.WaitGroup
}

type runningService struct {
	svc    Service
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor creates a supervisor.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		logger:  logger,
		running: map[string]*runningService{},
	}
}

// Start launches svc on its own goroutine under ctx. Starting a
// service that is already running is a no-op; the original instance
// keeps running.
func (s *Supervisor) Start(ctx context.Context, svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[svc.Name()]; ok {
		s.logger.Debug("service already running", zap.String("service", svc.Name()))
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	rs := &runningService{svc: svc, cancel: cancel, done: make(chan struct{})}
	s.running[svc.Name()] = rs

	s.logger.Info("starting service", zap.String("service", svc.Name()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(rs.done)

		if err := svc.Run(runCtx); err != nil && runCtx.Err() == nil {
			s.logger.Error("service exited with error",
				zap.String("service", svc.Name()),
				zap.Error(err))
		} else {
			s.logger.Info("service stopped", zap.String("service", svc.Name()))
		}

		s.mu.Lock()
		delete(s.running, svc.Name())
		s.mu.Unlock()
	}()
}

// Restart stops a running service and starts it again under ctx.
// Unknown names are an error; the caller decides how loudly to react.
func (s *Supervisor) Restart(ctx context.Context, svc Service) error {
	s.mu.Lock()
	rs, ok := s.running[svc.Name()]
	s.mu.Unlock()

	if ok {
		rs.cancel()
		<-rs.done
	} else if ctx.Err() != nil {
		return fmt.Errorf("restart %s: %w", svc.Name(), ctx.Err())
	}

	s.Start(ctx, svc)
	return nil
}

// IsRunning reports whether a service with the given name is running.
func (s *Supervisor) IsRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[name]
	return ok
}

// Wait blocks until every launched service has stopped. Intended for
// shutdown after the root context is cancelled.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
