package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sweeper periodically removes expired entries. Lazy expiration already
// keeps reads correct; the sweep only returns memory held by entries nobody
// asks for again.
type sweeper struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func startSweeper(every time.Duration, sweep func() int, logger *slog.Logger) *sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	s := &sweeper{cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		logger.Debug("expiry sweeper started", "interval", every)
		for {
			select {
			case <-ctx.Done():
				logger.Debug("expiry sweeper stopped")
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
	return s
}

func (s *sweeper) stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}
