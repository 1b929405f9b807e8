// Package scheduler drives background sync: a periodic round, an on-demand
// trigger and a connectivity probe that syncs as soon as the server comes
// back.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/dmitrijs2005/gophnotes/internal/client/syncer"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// Rounder runs sync rounds until the server has nothing more to send.
type Rounder interface {
	SyncAll(ctx context.Context) (*syncer.Result, error)
}

// Pinger probes the server.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 3 * time.Second

// Status is a snapshot of the scheduler state.
type Status struct {
	Online   bool
	LastSync time.Time
	LastErr  error
	Last     *syncer.Result
}

type Scheduler struct {
	rounder      Rounder
	pinger       Pinger
	interval     time.Duration
	pingInterval time.Duration
	logger       logging.Logger

	// OnAuthExpired is called from the loop when a round fails because the
	// session can no longer be refreshed. Periodic rounds stay paused until
	// the next Trigger.
	OnAuthExpired func()

	trigger chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.RWMutex
	running bool
	paused  bool
	status  Status
}

// New returns a stopped scheduler. A zero pingInterval or nil pinger
// disables the connectivity probe and the scheduler assumes it is online.
// A non-positive interval disables periodic rounds; only Trigger runs one.
func New(r Rounder, p Pinger, interval, pingInterval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		rounder:      r,
		pinger:       p,
		interval:     interval,
		pingInterval: pingInterval,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
		status:       Status{Online: true},
	}
}

// Start launches the loop. It returns immediately; calling it while running
// is a no-op. A stopped scheduler can be started again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopCh = stop
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx, stop)
}

// Stop ends the loop and waits for an in-flight round to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stopCh
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()
}

// Trigger asks for a round as soon as possible. Requests made while one is
// already pending are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	var periodic <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		periodic = t.C
	}

	var probe <-chan time.Time
	if s.pinger != nil && s.pingInterval > 0 {
		t := time.NewTicker(s.pingInterval)
		defer t.Stop()
		probe = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-s.trigger:
			s.setPaused(false)
			s.run(ctx)
		case <-periodic:
			if s.skipPeriodic() {
				continue
			}
			s.run(ctx)
		case <-probe:
			if s.ping(ctx) && !s.skipPeriodic() {
				s.run(ctx)
			}
		}
	}
}

// ping updates the online flag and reports whether the server just came
// back.
func (s *Scheduler) ping(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := s.pinger.Ping(pctx)
	cancel()

	online := err == nil
	s.mu.Lock()
	was := s.status.Online
	s.status.Online = online
	s.mu.Unlock()

	if was != online {
		s.logger.Info(ctx, "connectivity changed", "online", online)
	}
	return online && !was
}

func (s *Scheduler) run(ctx context.Context) {
	res, err := s.rounder.SyncAll(ctx)

	s.mu.Lock()
	s.status.LastErr = err
	if res != nil && res.Rounds > 0 {
		s.status.Last = res
		s.status.LastSync = time.Now()
	}
	if errors.Is(err, client.ErrUnavailable) {
		s.status.Online = false
	} else if err == nil {
		s.status.Online = true
	}
	s.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, client.ErrAuthExpired):
		s.setPaused(true)
		if s.OnAuthExpired != nil {
			s.OnAuthExpired()
		}
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		s.logger.Debug(ctx, "sync skipped, not logged in")
	default:
		s.logger.Warn(ctx, "background sync failed", "error", err)
	}
}

func (s *Scheduler) setPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.mu.Unlock()
}

// skipPeriodic reports whether timer-driven rounds should not run.
func (s *Scheduler) skipPeriodic() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused || !s.status.Online && s.pinger != nil && s.pingInterval > 0
}
