package session

import (
	"context"
	"sort"
	"sync"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/realtime"
	"go-dashboard/pkg/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Hub tracks the live sessions of this process.
type Hub struct {
	repo document.Repository
	cfg  *config.Config
	opts realtime.Options
	log  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(repo document.Repository, cfg *config.Config, log *zap.Logger) *Hub {
	return &Hub{
		repo:     repo,
		cfg:      cfg,
		opts:     realtime.OptionsFromConfig(cfg),
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// NewSession registers a session for conn. claims is nil for anonymous
// connections.
func (h *Hub) NewSession(conn Conn, claims *utils.UserClaims) *Session {
	s := newSession(h, conn, claims)
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	return s
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Sessions lists the live sessions bound to dashboardID, oldest first.
func (h *Hub) Sessions(dashboardID string) []Info {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()

	infos := make([]Info, 0, len(all))
	for _, s := range all {
		if info := s.Info(); info.DashboardID == dashboardID {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

// Shutdown closes every session and waits for their offline presence
// writes until ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()

	var err error
	for _, s := range all {
		err = multierr.Append(err, s.Close())
	}

	done := make(chan struct{})
	go func() {
		for _, s := range all {
			s.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}
	h.log.Info("Closed websocket sessions", zap.Int("count", len(all)))
	return err
}
