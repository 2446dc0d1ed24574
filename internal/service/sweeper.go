package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/astlibr/loan-service/config"
)

// Sweeper runs the overdue sweep on a daily schedule, anchored to a
// configured time of day. It is an explicit background task with a
// start/stop lifecycle, independent of request handling.
type Sweeper struct {
	log      *zap.Logger
	svc      *Service
	at       string
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(svc *Service, cfg config.Loan, log *zap.Logger) *Sweeper {
	return &Sweeper{
		log:      log.Named("sweeper"),
		svc:      svc,
		at:       cfg.SweepAt,
		interval: cfg.SweepInterval,
		now:      time.Now,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
}

// Stop cancels the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(s.untilNext(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := s.svc.Sweep(ctx); err != nil {
				s.log.Error("sweep cycle", zap.Error(err))
			}
			timer.Reset(s.untilNext(s.now()))
		}
	}
}

// untilNext anchors the schedule to the configured HH:MM when it parses,
// falling back to a plain interval otherwise.
func (s *Sweeper) untilNext(now time.Time) time.Duration {
	at, err := time.Parse("15:04", s.at)
	if err != nil {
		return s.interval
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
