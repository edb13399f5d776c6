package auth

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

const (
	// DefaultSafetyBuffer is the margin before nominal expiry in which a
	// credential is no longer handed out.
	DefaultSafetyBuffer = 5 * time.Minute
	// DefaultRefreshWindow is the proactive-refresh lead window; it gives
	// several retry opportunities before forced expiry.
	DefaultRefreshWindow = 30 * time.Minute
)

// TokenFetcher performs the real credential fetch against the provider.
// Implemented by the brokerage client.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (types.Credential, error)
}

// ManagerConfig tunes the token lifecycle manager. Zero durations fall back
// to the defaults.
type ManagerConfig struct {
	SafetyBuffer  time.Duration
	RefreshWindow time.Duration
}

// Manager guarantees every caller observes a non-expired credential while
// issuing at most one real fetch per refresh cycle. In-process callers are
// serialized by a mutex; cross-process callers coordinate through the
// credential store's file lock.
type Manager struct {
	store   *CredentialStore
	fetcher TokenFetcher
	clk     clock.Clock
	log     *logger.Logger

	safetyBuffer  time.Duration
	refreshWindow time.Duration

	mu     sync.Mutex
	cached *types.Credential
}

// NewManager creates a token lifecycle manager.
func NewManager(store *CredentialStore, fetcher TokenFetcher, clk clock.Clock, log *logger.Logger, cfg ManagerConfig) *Manager {
	if cfg.SafetyBuffer <= 0 {
		cfg.SafetyBuffer = DefaultSafetyBuffer
	}

	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = DefaultRefreshWindow
	}

	return &Manager{
		store:         store,
		fetcher:       fetcher,
		clk:           clk,
		log:           log,
		safetyBuffer:  cfg.SafetyBuffer,
		refreshWindow: cfg.RefreshWindow,
		cached:        nil,
	}
}

// GetToken returns a usable credential.
//
// With forceRefresh false: a cached credential outside the proactive-refresh
// window is returned with no I/O; inside the window a refresh is attempted
// and its failure falls back to the still-valid credential. An expired or
// absent credential forces a blocking fetch whose failure is fatal to this
// call (retry policy belongs to the caller).
func (m *Manager) GetToken(ctx context.Context, forceRefresh bool) (types.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()

	if !forceRefresh {
		cred := m.currentLocked()

		if cred != nil && cred.ValidAt(now, m.safetyBuffer) {
			if !m.inRefreshWindow(cred, now) {
				return *cred, nil
			}

			// Proactive refresh: failure degrades gracefully to the
			// still-valid cached credential.
			fresh, err := m.refreshLocked(ctx, true)
			if err != nil {
				m.log.Warn("proactive token refresh failed, keeping cached credential",
					zap.Error(err),
					zap.Time("expires_at", cred.ExpiresAt))

				return *cred, nil
			}

			return fresh, nil
		}
	}

	fresh, err := m.refreshLocked(ctx, !forceRefresh)
	if err != nil {
		return types.Credential{}, errors.Wrap(errors.ErrCodeCredentialFetchFailed, "token fetch failed with no usable cached credential", err)
	}

	return fresh, nil
}

// InvalidateCache deletes the persisted credential so the next GetToken
// performs a real fetch.
func (m *Manager) InvalidateCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = nil

	return m.store.WithLock(func() error {
		return m.store.Delete()
	})
}

// Status reports the credential's health without performing any I/O beyond
// a store read.
func (m *Manager) Status() types.TokenStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.currentLocked()
	now := m.clk.Now()

	if cred == nil {
		return types.TokenStatus{State: types.TokenStateNoToken, Remaining: 0}
	}

	if !cred.ValidAt(now, m.safetyBuffer) {
		return types.TokenStatus{State: types.TokenStateExpired, Remaining: 0}
	}

	remaining := cred.ExpiresAt.Add(-m.safetyBuffer).Sub(now)

	state := types.TokenStateValid
	if m.inRefreshWindow(cred, now) {
		state = types.TokenStateExpiringSoon
	}

	return types.TokenStatus{State: state, Remaining: remaining}
}

// currentLocked returns the in-memory credential, falling back to the
// persisted store. Caller holds m.mu.
func (m *Manager) currentLocked() *types.Credential {
	if m.cached != nil {
		return m.cached
	}

	var cred *types.Credential

	err := m.store.WithLock(func() error {
		var loadErr error
		cred, loadErr = m.store.Load()

		return loadErr
	})
	if err != nil {
		m.log.Warn("credential store read failed", zap.Error(err))

		return nil
	}

	m.cached = cred

	return cred
}

func (m *Manager) inRefreshWindow(cred *types.Credential, now time.Time) bool {
	return now.After(cred.ExpiresAt.Add(-m.refreshWindow))
}

// refreshLocked obtains a fresh credential. Another process may have already
// refreshed: the store is re-read under the file lock before and after the
// network fetch, and a winner's credential is adopted instead of fetching
// (before) or overwriting (after). The file lock is never held across the
// network call. adoptExisting is false on an explicit force-refresh, which
// must always hit the provider. Caller holds m.mu.
func (m *Manager) refreshLocked(ctx context.Context, adoptExisting bool) (types.Credential, error) {
	if adoptExisting {
		// Lost the cross-process race before fetching? Use the winner's
		// token instead of spending a fetch.
		var existing *types.Credential

		err := m.store.WithLock(func() error {
			var loadErr error
			existing, loadErr = m.store.Load()

			return loadErr
		})
		if err != nil {
			return types.Credential{}, err
		}

		now := m.clk.Now()
		if existing != nil && existing.ValidAt(now, m.safetyBuffer) && !m.inRefreshWindow(existing, now) {
			m.cached = existing

			return *existing, nil
		}
	}

	fetched, err := m.fetcher.FetchToken(ctx)
	if err != nil {
		return types.Credential{}, err
	}

	fetched.Source = types.CredentialSourceFetched
	fetched.PID = os.Getpid()

	// Read-modify-write: if a concurrent process persisted a fresher
	// credential while we were fetching, keep theirs.
	result := fetched

	err = m.store.WithLock(func() error {
		current, loadErr := m.store.Load()
		if loadErr != nil {
			return loadErr
		}

		if current != nil && current.ExpiresAt.After(fetched.ExpiresAt) {
			result = *current

			return nil
		}

		return m.store.Save(&fetched)
	})
	if err != nil {
		return types.Credential{}, err
	}

	m.cached = &result

	m.log.Info("credential refreshed",
		zap.Time("expires_at", result.ExpiresAt),
		zap.String("source", string(result.Source)))

	return result, nil
}
