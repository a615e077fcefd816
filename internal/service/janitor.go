package service

import (
	"sync"
	"time"

	"github.com/vetbox/vetbox/internal/store"
	"go.uber.org/zap"
)

const defaultJanitorInterval = 5 * time.Minute

// JanitorService evicts idle sessions on a periodic schedule so abandoned
// conversations don't accumulate for the process lifetime.
type JanitorService struct {
	sessions *store.SessionStore
	ttl      time.Duration
	logger   *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewJanitorService(sessions *store.SessionStore, ttl time.Duration, logger *zap.Logger) *JanitorService {
	return &JanitorService{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		interval: defaultJanitorInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *JanitorService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the janitor in a background goroutine.
func (s *JanitorService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session janitor started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("session janitor stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the janitor.
func (s *JanitorService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *JanitorService) run() {
	removed := s.sessions.DeleteIdle(s.ttl)
	if removed > 0 {
		s.logger.Info("evicted idle sessions",
			zap.Int("count", removed),
			zap.Int("remaining", s.sessions.Len()))
	}
}
