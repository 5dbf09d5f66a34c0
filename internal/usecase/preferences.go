package usecase

import (
	"context"
	"sync"
	"time"

	"storefront-catalog/internal/domain"
	"storefront-catalog/pkg/logger"

	"github.com/rs/zerolog"
)

const (
	viewDensityKeyPrefix = "pref:view_density"
	preferenceTimeout    = 500 * time.Millisecond
)

// PreferenceKey namespaces the density preference per client.
func PreferenceKey(clientID string) string {
	if clientID == "" {
		return viewDensityKeyPrefix
	}
	return viewDensityKeyPrefix + ":" + clientID
}

// Preferences is the view-density preference of one session: loaded once at
// mount and written through on every change. Store failures are logged and
// swallowed; the session keeps its in-memory value.
type Preferences struct {
	store domain.PreferenceStore
	key   string
	log   zerolog.Logger

	mu      sync.Mutex
	density domain.ViewDensity
	loaded  bool
}

// NewPreferences accepts a nil store, in which case the preference lives for
// the session only.
func NewPreferences(store domain.PreferenceStore, clientID string) *Preferences {
	return &Preferences{
		store:   store,
		key:     PreferenceKey(clientID),
		log:     logger.WithComponent("preferences"),
		density: domain.DefaultViewDensity,
	}
}

// Load reads the stored density the first time it is called. Invalid or
// unreadable values leave the default in place.
func (p *Preferences) Load(ctx context.Context) domain.ViewDensity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.density
	}
	p.loaded = true
	if p.store == nil {
		return p.density
	}

	ctx, cancel := context.WithTimeout(ctx, preferenceTimeout)
	defer cancel()

	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		p.log.Warn().Err(err).Str("key", p.key).Msg("preference store unavailable, using default view density")
		return p.density
	}
	if !ok {
		return p.density
	}
	d, valid := domain.ParseViewDensity(raw)
	if !valid {
		p.log.Debug().Str("key", p.key).Str("value", raw).Msg("discarding invalid stored view density")
		return p.density
	}
	p.density = d
	return p.density
}

// Density returns the in-memory value.
func (p *Preferences) Density() domain.ViewDensity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.density
}

// Save validates d, applies it and writes it through. Only an invalid value
// is reported; a failing store is not.
func (p *Preferences) Save(ctx context.Context, d domain.ViewDensity) error {
	if _, ok := domain.ParseViewDensity(string(d)); !ok {
		return domain.ErrInvalidViewDensity
	}

	p.mu.Lock()
	p.density = d
	p.mu.Unlock()

	if p.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, preferenceTimeout)
	defer cancel()
	if err := p.store.Set(ctx, p.key, string(d)); err != nil {
		p.log.Warn().Err(err).Str("key", p.key).Msg("failed to persist view density")
	}
	return nil
}
