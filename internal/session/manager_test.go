// ABOUTME: Tests for the session manager token lifecycle
// ABOUTME: Uses a fake backend to verify state transitions and call counts

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu           sync.Mutex
	basicCalls   int
	bearerCalls  int
	logoutCalls  int
	cookieResets int

	basicToken  *AuthorizationToken
	basicErr    error
	bearerToken *AuthorizationToken
	bearerErr   error
	logoutErr   error

	lastUsername string
	lastPassword string
	lastBearer   string
}

func (f *fakeBackend) AuthenticateBasic(ctx context.Context, username, password string) (*AuthorizationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.basicCalls++
	f.lastUsername, f.lastPassword = username, password
	return f.basicToken, f.basicErr
}

func (f *fakeBackend) AuthenticateBearer(ctx context.Context, jwt string) (*AuthorizationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bearerCalls++
	f.lastBearer = jwt
	return f.bearerToken, f.bearerErr
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeBackend) ResetCookies() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookieResets++
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	warnings  []string
}

func (n *recordingNotifier) Success(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, title+": "+message)
}

func (n *recordingNotifier) Warning(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, title+": "+message)
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func validToken() *AuthorizationToken {
	return &AuthorizationToken{
		Subject:   "admin",
		IssuedAt:  testNow,
		ExpiresAt: testNow.Add(time.Hour),
		JWT:       "fresh-credential",
	}
}

func expiredToken() *AuthorizationToken {
	return &AuthorizationToken{
		Subject:   "admin",
		IssuedAt:  testNow.Add(-2 * time.Hour),
		ExpiresAt: testNow.Add(-time.Hour),
		JWT:       "stale-credential",
	}
}

func newTestManager(t *testing.T, backend *fakeBackend, notifier Notifier) (*Manager, *Store) {
	t.Helper()
	store := NewStore(t.TempDir())
	mgr := NewManager(backend, store, notifier, nil, WithClock(func() time.Time { return testNow }))
	return mgr, store
}

func TestLogin_Success(t *testing.T) {
	backend := &fakeBackend{basicToken: validToken()}
	notifier := &recordingNotifier{}
	mgr, store := newTestManager(t, backend, notifier)

	token, err := mgr.Login(context.Background(), "admin", "secret", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Subject != "admin" {
		t.Errorf("unexpected subject %q", token.Subject)
	}
	if !mgr.IsLoggedIn() {
		t.Error("expected logged-in state after login")
	}
	if backend.lastUsername != "admin" || backend.lastPassword != "secret" {
		t.Error("credentials not passed to backend")
	}

	stored, _ := store.Load()
	if stored == nil || stored.JWT != "fresh-credential" {
		t.Error("token not persisted")
	}
	if len(notifier.successes) != 1 {
		t.Fatalf("expected one success notice, got %d", len(notifier.successes))
	}
	if notifier.successes[0] != "Welcome admin: Session validity: 60 minutes" {
		t.Errorf("unexpected notice %q", notifier.successes[0])
	}
}

func TestLogin_ClearsPriorSessionFirst(t *testing.T) {
	backend := &fakeBackend{basicToken: validToken()}
	mgr, store := newTestManager(t, backend, NopNotifier{})

	if err := store.Save(expiredToken()); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.Login(context.Background(), "admin", "secret", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The stale token triggered a backend logout before the new exchange
	if backend.logoutCalls != 1 {
		t.Errorf("expected 1 logout call, got %d", backend.logoutCalls)
	}

	stored, _ := store.Load()
	if stored == nil || stored.JWT != "fresh-credential" {
		t.Error("expected exactly the fresh token in the store")
	}
}

func TestLogin_FailureLeavesLoggedOut(t *testing.T) {
	backend := &fakeBackend{basicErr: errors.New("bad credentials")}
	mgr, store := newTestManager(t, backend, NopNotifier{})

	if _, err := mgr.Login(context.Background(), "admin", "wrong", true); err == nil {
		t.Fatal("expected error, got nil")
	}
	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state after failed login")
	}
	token, _ := store.Load()
	if token != nil {
		t.Error("no token may be stored after failed login")
	}
}

func TestLogout_NoTokenNoNetworkCall(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend, NopNotifier{})

	if err := mgr.Logout(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.logoutCalls != 0 {
		t.Errorf("expected no backend call, got %d", backend.logoutCalls)
	}
	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state")
	}
}

func TestLogout_ClearsStateEvenWhenBackendFails(t *testing.T) {
	backend := &fakeBackend{logoutErr: errors.New("boom")}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}
	mgr.LoggedIn().Set(true)

	err := mgr.Logout(context.Background(), false)
	if err == nil {
		t.Error("expected backend error to propagate")
	}
	token, _ := store.Load()
	if token != nil {
		t.Error("token must be cleared on the failure path too")
	}
	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state")
	}
	if backend.cookieResets == 0 {
		t.Error("expected cookies to be cleared")
	}
}

func TestLogout_WithWarning(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &recordingNotifier{}
	mgr, store := newTestManager(t, backend, notifier)
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Logout(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(notifier.warnings))
	}
}

func TestCheckToken_ValidStoredToken(t *testing.T) {
	backend := &fakeBackend{}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}

	token, err := mgr.CheckToken(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == nil || token.JWT != "fresh-credential" {
		t.Error("expected the stored token back unchanged")
	}
	if !mgr.IsLoggedIn() {
		t.Error("expected logged-in state")
	}
}

func TestCheckToken_ExpiredTokenLogsOut(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &recordingNotifier{}
	mgr, store := newTestManager(t, backend, notifier)
	if err := store.Save(expiredToken()); err != nil {
		t.Fatal(err)
	}

	token, err := mgr.CheckToken(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != nil {
		t.Error("expected nil for expired token")
	}
	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state")
	}
	if len(notifier.warnings) != 1 {
		t.Errorf("expected session-expired warning, got %d", len(notifier.warnings))
	}
	stored, _ := store.Load()
	if stored != nil {
		t.Error("expired token must be cleared from the store")
	}
}

func TestCheckToken_AbsentToken(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend, NopNotifier{})

	token, err := mgr.CheckToken(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != nil {
		t.Error("expected nil token")
	}
	if backend.logoutCalls != 0 {
		t.Error("absent token must not trigger a backend call")
	}
}

func TestCheckToken_CandidateToken(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend, NopNotifier{})

	candidate := validToken()
	token, err := mgr.CheckToken(context.Background(), candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != candidate {
		t.Error("expected the candidate token back unchanged")
	}
}

func TestRenewToken_NoTokenIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend, NopNotifier{})

	if err := mgr.RenewToken(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.bearerCalls != 0 {
		t.Error("renew without token must not call the backend")
	}
}

func TestRenewToken_SilentSuccess(t *testing.T) {
	renewed := validToken()
	renewed.JWT = "renewed-credential"
	backend := &fakeBackend{bearerToken: renewed}
	notifier := &recordingNotifier{}
	mgr, store := newTestManager(t, backend, notifier)
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}

	if err := mgr.RenewToken(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.lastBearer != "fresh-credential" {
		t.Errorf("renew must present the stored credential, got %q", backend.lastBearer)
	}
	stored, _ := store.Load()
	if stored == nil || stored.JWT != "renewed-credential" {
		t.Error("renewed token not persisted")
	}
	if len(notifier.successes) != 0 {
		t.Error("silent renewal must not announce")
	}
	if !mgr.IsLoggedIn() {
		t.Error("expected logged-in state after renewal")
	}
}

func TestRenewToken_FailurePerformsFullLogout(t *testing.T) {
	backend := &fakeBackend{bearerErr: errors.New("expired")}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}
	mgr.LoggedIn().Set(true)

	_ = mgr.RenewToken(context.Background())

	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state after failed renewal")
	}
	stored, _ := store.Load()
	if stored != nil {
		t.Error("token must be cleared after failed renewal")
	}
}

func TestHandleAuthError_LogsOut(t *testing.T) {
	backend := &fakeBackend{}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}
	mgr.LoggedIn().Set(true)

	mgr.HandleAuthError(errors.New("401 unauthorized"))

	if mgr.IsLoggedIn() {
		t.Error("expected logged-out state after auth error")
	}
	stored, _ := store.Load()
	if stored != nil {
		t.Error("token must be cleared after auth error")
	}
}

func TestProjections_NoToken(t *testing.T) {
	backend := &fakeBackend{}
	mgr, _ := newTestManager(t, backend, NopNotifier{})

	if got := mgr.UserName(); got != AnonymousUserName {
		t.Errorf("expected %q, got %q", AnonymousUserName, got)
	}
	if got := mgr.TokenValidSeconds(); got != 0 {
		t.Errorf("expected 0 validity, got %d", got)
	}
	if mgr.Token() != nil {
		t.Error("expected nil token")
	}
}

func TestProjections_WithToken(t *testing.T) {
	backend := &fakeBackend{}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	tok := validToken()
	tok.PreferredUsername = "Administrator"
	if err := store.Save(tok); err != nil {
		t.Fatal(err)
	}

	if got := mgr.UserName(); got != "admin" {
		t.Errorf("expected admin, got %q", got)
	}
	if got := mgr.DisplayName(); got != "Administrator" {
		t.Errorf("expected Administrator, got %q", got)
	}
	if got := mgr.TokenValidSeconds(); got != 3600 {
		t.Errorf("expected 3600, got %d", got)
	}
}

func TestRestore_PicksUpPersistedSession(t *testing.T) {
	backend := &fakeBackend{}
	mgr, store := newTestManager(t, backend, NopNotifier{})
	if err := store.Save(validToken()); err != nil {
		t.Fatal(err)
	}

	token, err := mgr.Restore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == nil || !mgr.IsLoggedIn() {
		t.Error("expected restored logged-in session")
	}
}
