// Package scheduler emits configured notifications on cron schedules.
//
// Specs use the standard 5-field cron syntax plus descriptors like
// "@hourly" or "@every 10m".
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"notifyd/internal/channel"
	"notifyd/internal/dispatch"
	"notifyd/pkg/logx"
)

type Entry struct {
	Name       string
	Spec       string
	Message    string
	Recipients []channel.Recipient
}

type Service struct {
	log      logx.Logger
	notifier *dispatch.Notifier
	entries  []Entry

	parser cron.Parser

	mu     sync.Mutex
	c      *cron.Cron
	cancel context.CancelFunc
}

func New(entries []Entry, notifier *dispatch.Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:      log,
		notifier: notifier,
		entries:  entries,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start validates every spec, registers the jobs, and starts the cron loop.
// A single invalid spec fails the whole start; silently dropping a schedule
// would be worse than refusing to boot.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithParser(s.parser))

	for _, e := range s.entries {
		e := e
		if _, err := s.parser.Parse(e.Spec); err != nil {
			cancel()
			return fmt.Errorf("schedule %q: %w", e.Name, err)
		}
		_, err := c.AddFunc(e.Spec, func() {
			sctx, scancel := context.WithTimeout(runCtx, time.Minute)
			defer scancel()
			if err := s.notifier.Send(sctx, e.Message, e.Recipients); err != nil {
				s.log.Error("scheduled notification failed", logx.String("schedule", e.Name), logx.Err(err))
				return
			}
			s.log.Debug("scheduled notification sent", logx.String("schedule", e.Name))
		})
		if err != nil {
			cancel()
			return fmt.Errorf("schedule %q: %w", e.Name, err)
		}
	}

	s.c = c
	s.cancel = cancel
	c.Start()
	s.log.Info("scheduler started", logx.Int("schedules", len(s.entries)))
	return nil
}

// Stop halts the cron loop and waits for running jobs up to ctx's deadline.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	cancel := s.cancel
	s.c = nil
	s.cancel = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	if cancel != nil {
		cancel()
	}
	done := c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
