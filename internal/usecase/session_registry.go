package usecase

import (
	"context"
	"time"

	"storefront-catalog/config"
	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/cache"
	"storefront-catalog/pkg/logger"

	"github.com/google/uuid"
)

// SessionRegistry holds the live browse sessions of the HTTP surface. Every
// access slides the idle deadline; an expired or deleted session is closed by
// the cache's eviction hook.
type SessionRegistry struct {
	ctx      context.Context
	store    domain.CatalogStore
	prefs    domain.PreferenceStore
	sessions cache.CacheService
	cfg      *config.Config
}

func NewSessionRegistry(ctx context.Context, store domain.CatalogStore, prefs domain.PreferenceStore, sessions cache.CacheService, cfg *config.Config) *SessionRegistry {
	sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*BrowseSession); ok {
			logger.Debug().Str("session_id", id).Msg("evicting browse session")
			s.Close()
		}
	})
	return &SessionRegistry{
		ctx:      ctx,
		store:    store,
		prefs:    prefs,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Open creates and mounts a session. The session is registered even when the
// initial fetch fails, so the caller can retry it.
func (r *SessionRegistry) Open(ctx context.Context, address, clientID string) (*BrowseSession, SessionSnapshot, error) {
	s := NewBrowseSession(r.ctx, r.store, BrowseSessionOptions{
		ID:             uuid.New().String(),
		ClientID:       clientID,
		PageSize:       r.cfg.PageSize,
		PriceCeiling:   r.cfg.DefaultPriceCeiling,
		SearchDebounce: r.cfg.SearchDebounce,
		FetchTimeout:   r.cfg.FetchTimeout,
		Preferences:    r.prefs,
	})
	r.sessions.Set(s.ID(), s, r.cfg.SessionIdleTTL)

	snap, err := s.Mount(ctx, address)
	return s, snap, err
}

func (r *SessionRegistry) Get(id string) (*BrowseSession, error) {
	v, found := r.sessions.Get(id)
	if !found {
		return nil, domain.ErrSessionNotFound
	}
	s, ok := v.(*BrowseSession)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Replace fails once a concurrent Close or expiry removed the key, so a
	// closed session is never registered again.
	if !r.sessions.Replace(id, s, r.cfg.SessionIdleTTL) {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close tears down one session.
func (r *SessionRegistry) Close(id string) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	r.sessions.Delete(id)
	return nil
}

func (r *SessionRegistry) Len() int {
	return len(r.sessions.Items())
}

// Shutdown closes every live session.
func (r *SessionRegistry) Shutdown() {
	start := time.Now()
	items := r.sessions.Items()
	for _, v := range items {
		if s, ok := v.(*BrowseSession); ok {
			s.Close()
		}
	}
	r.sessions.Flush()
	logger.Info().Int("sessions", len(items)).Dur("duration_ms", time.Since(start)).Msg("browse sessions closed")
}
