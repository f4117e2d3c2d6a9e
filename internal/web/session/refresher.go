package session

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
)

// DefaultRefreshInterval keeps the stored token well inside its one hour
// lifetime.
const DefaultRefreshInterval = 5 * time.Minute

type refresher struct {
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// StartRefresh re-mints the token for the signed-in identity every interval
// so API calls keep working on a tab left open. It is a no-op after the
// first call. Close stops it.
func (s *Session) StartRefresh(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	s.eventMu.Lock()
	if s.refresher != nil {
		s.eventMu.Unlock()
		return
	}
	r := &refresher{
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	s.refresher = r
	s.eventMu.Unlock()

	go s.runRefresh(r)
	s.logger.Info("token refresher started", "interval", interval)
}

func (r *refresher) stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (s *Session) runRefresh(r *refresher) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshOnce()
		case <-r.stopCh:
			return
		}
	}
}

func (s *Session) refreshOnce() {
	s.eventMu.Lock()
	defer s.eventMu.Unlock()

	id, ok := s.Identity()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mintTimeout)
	defer cancel()

	tok, err := s.provider.MintToken(ctx, id)
	switch {
	case err == nil:
		s.creds.Set(tok)
		s.logger.Debug("token refreshed", "uid", id.ID)
	case errors.Is(err, identity.ErrCredential):
		// The provider signs the identity out and the event clears the store.
		s.logger.Warn("token refresh rejected", "uid", id.ID, "error", err)
	default:
		s.logger.Warn("token refresh failed", "uid", id.ID, "error", err)
	}
}
