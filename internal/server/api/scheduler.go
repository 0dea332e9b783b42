package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule scans once immediately and then every interval until ctx is done.
// Ticks that land while a scan is running are dropped.
func (s *Server) Schedule(ctx context.Context, interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("scan interval %s below 1s", interval)
	}
	log := s.log.WithField("interval", interval.String())
	cronLog := cron.PrintfLogger(log)

	c := cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	if _, err := c.AddFunc("@every "+interval.String(), func() { s.scheduledScan(ctx) }); err != nil {
		return fmt.Errorf("schedule scan: %w", err)
	}

	log.Info("starting scan scheduler")
	s.scheduledScan(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("scan scheduler stopped")
	return nil
}

func (s *Server) scheduledScan(ctx context.Context) {
	_, err := s.RunScan(ctx, 0)
	switch {
	case errors.Is(err, ErrScanInProgress):
		s.log.Info("scan already running, skipping tick")
	case err != nil && ctx.Err() == nil:
		s.log.WithError(err).Error("scheduled scan failed")
	}
}
