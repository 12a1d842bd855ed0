// ABOUTME: Session manager owning the token lifecycle and login state
// ABOUTME: Serializes login/logout/renew exchanges against the backend

package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Authenticator is the backend surface the manager needs. Implemented by
// the REST client.
type Authenticator interface {
	// AuthenticateBasic exchanges a username/password pair for a token.
	// The credentials travel once in the request header and are never stored.
	AuthenticateBasic(ctx context.Context, username, password string) (*AuthorizationToken, error)
	// AuthenticateBearer re-validates a bearer credential for a fresh token.
	AuthenticateBearer(ctx context.Context, jwt string) (*AuthorizationToken, error)
	// Logout invalidates the server-side session.
	Logout(ctx context.Context) error
	// ResetCookies drops all client-side cookies.
	ResetCookies()
}

// Manager owns the stored token and the derived login state. All token
// writes go through it; other components only read through its accessors
// and signals.
type Manager struct {
	api      Authenticator
	store    *Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	loggedIn         *Signal
	loginPageVisible *Signal

	// authMu serializes login/logout/renew so the visible session always
	// reflects the most recently initiated exchange.
	authMu     sync.Mutex
	renewGroup singleflight.Group
	refreshing atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager. Call Restore afterwards to pick up
// a token persisted by a previous run.
func NewManager(api Authenticator, store *Store, notifier Notifier, logger *zap.Logger, opts ...Option) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		api:              api,
		store:            store,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
		loggedIn:         NewSignal(false),
		loginPageVisible: NewSignal(false),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoggedIn exposes the logged-in state signal.
func (m *Manager) LoggedIn() *Signal { return m.loggedIn }

// LoginPageVisible exposes the login-page visibility signal.
func (m *Manager) LoginPageVisible() *Signal { return m.loginPageVisible }

// IsLoggedIn returns the current logged-in state.
func (m *Manager) IsLoggedIn() bool { return m.loggedIn.Value() }

// IsRefreshing reports whether a login exchange is in flight. The UI uses
// it to disable re-submission.
func (m *Manager) IsRefreshing() bool { return m.refreshing.Load() }

// Restore re-establishes the session state from the stored token. Invoked
// once after construction.
func (m *Manager) Restore(ctx context.Context) (*AuthorizationToken, error) {
	return m.CheckToken(ctx, nil)
}

// Login clears any prior session, then exchanges the credentials for a new
// token. On success the token is persisted and the session becomes logged
// in; on failure the error propagates and the session stays logged out.
func (m *Manager) Login(ctx context.Context, username, password string, announce bool) (*AuthorizationToken, error) {
	m.authMu.Lock()
	defer m.authMu.Unlock()

	m.refreshing.Store(true)
	defer m.refreshing.Store(false)

	// The cleanup logout has happened even if the login itself fails.
	if err := m.logoutLocked(ctx, false); err != nil {
		m.logger.Warn("cleanup logout before login failed", zap.Error(err))
	}

	token, err := m.api.AuthenticateBasic(ctx, username, password)
	if err != nil {
		m.logger.Warn("login failed", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := m.loginSuccess(token, announce); err != nil {
		return nil, err
	}
	return token, nil
}

// Logout ends the session. Without a stored token it only clears local
// state and performs no network call. With a token the backend logout is
// attempted; local state is cleared regardless of its outcome.
func (m *Manager) Logout(ctx context.Context, withWarning bool) error {
	m.authMu.Lock()
	defer m.authMu.Unlock()
	return m.logoutLocked(ctx, withWarning)
}

func (m *Manager) logoutLocked(ctx context.Context, withWarning bool) error {
	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn("token load failed", zap.Error(err))
	}

	if token == nil {
		m.cleanUpLocalState()
		return nil
	}

	logoutErr := m.api.Logout(ctx)
	if logoutErr != nil {
		m.logger.Warn("backend logout failed", zap.Error(logoutErr))
	}

	// Finalization runs on both the success and the failure path.
	m.cleanUpLocalState()
	if withWarning {
		m.notifier.Warning("Session expired!", "Please login again!")
	}
	return logoutErr
}

func (m *Manager) cleanUpLocalState() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("token clear failed", zap.Error(err))
	}
	m.api.ResetCookies()
	m.loggedIn.Set(false)
}

// CheckToken validates the supplied token, or the stored one when nil is
// passed. An absent or expired token ends the session with a warning and
// yields nil; a valid token confirms the logged-in state and is returned
// unchanged.
func (m *Manager) CheckToken(ctx context.Context, candidate *AuthorizationToken) (*AuthorizationToken, error) {
	token := candidate
	if token == nil {
		var err error
		token, err = m.store.Load()
		if err != nil {
			m.logger.Warn("token load failed", zap.Error(err))
		}
	}

	if token == nil {
		return nil, m.Logout(ctx, true)
	}

	valid := token.ValidSeconds(m.now())
	m.logger.Debug("checkToken",
		zap.String("sub", token.Subject),
		zap.Int("valid_seconds", valid))

	if valid > 0 {
		m.loggedIn.Set(true)
		return token, nil
	}
	return nil, m.Logout(ctx, true)
}

// RenewToken silently exchanges the stored bearer credential for a fresh
// token. Without a token it is a no-op; a failed exchange ends the session.
// Concurrent renewals collapse into a single backend call.
func (m *Manager) RenewToken(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil || token == nil {
		return nil
	}

	result, err, _ := m.renewGroup.Do("renew", func() (interface{}, error) {
		return m.api.AuthenticateBearer(ctx, token.JWT)
	})
	if err != nil {
		m.logger.Warn("token renewal failed", zap.Error(err))
		return m.Logout(ctx, false)
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()
	return m.loginSuccess(result.(*AuthorizationToken), false)
}

// HandleAuthError is invoked by the HTTP transport on authorization
// failures. The error detail does not matter: the session ends.
func (m *Manager) HandleAuthError(err error) {
	m.logger.Warn("authorization failure, logging out", zap.Error(err))
	// An auth exchange already holding the lock will clean up on its own;
	// re-entering here would deadlock on requests it issues itself.
	if !m.authMu.TryLock() {
		return
	}
	defer m.authMu.Unlock()
	_ = m.logoutLocked(context.Background(), false)
}

// Token returns the currently stored token, or nil.
func (m *Manager) Token() *AuthorizationToken {
	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn("token load failed", zap.Error(err))
		return nil
	}
	return token
}

// UserName returns the subject of the current token, or the anonymous
// placeholder.
func (m *Manager) UserName() string {
	if token := m.Token(); token != nil {
		return token.Subject
	}
	return AnonymousUserName
}

// DisplayName returns the human-readable name of the current user.
func (m *Manager) DisplayName() string {
	return m.Token().DisplayName()
}

// TokenValidSeconds returns the remaining validity of the current token.
func (m *Manager) TokenValidSeconds() int {
	return m.Token().ValidSeconds(m.now())
}

func (m *Manager) loginSuccess(token *AuthorizationToken, announce bool) error {
	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	validSeconds := token.ValidSeconds(m.now())
	m.logger.Info("login successful",
		zap.String("token", token.Redacted()),
		zap.Int("valid_seconds", validSeconds))

	if announce {
		validMinutes := (validSeconds + 30) / 60
		m.notifier.Success(
			fmt.Sprintf("Welcome %s", token.DisplayName()),
			fmt.Sprintf("Session validity: %d minutes", validMinutes))
	}

	m.loggedIn.Set(true)
	return nil
}
