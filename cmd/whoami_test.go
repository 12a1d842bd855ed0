// ABOUTME: Tests for the whoami and logout commands
// ABOUTME: Seeds the token store directly to simulate existing sessions

package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/nagypet/wstemplate/internal/session"
)

func seedToken(t *testing.T, dir string) *session.AuthorizationToken {
	t.Helper()
	token := &session.AuthorizationToken{
		Subject:   "admin",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
		UserID:    "1",
		Roles:     []string{"ADMIN"},
		Source:    "local",
		JWT:       "stored-credential",
	}
	if err := session.NewStore(dir).Save(token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return token
}

func TestWhoamiCommand_NotLoggedIn(t *testing.T) {
	testSetup(t, "http://localhost:8080")

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf, false)

	if exitCode != exitAuth {
		t.Errorf("expected exit code %d, got %d", exitAuth, exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Not logged in")) {
		t.Error("expected not-logged-in message")
	}
}

func TestWhoamiCommand_WithSession(t *testing.T) {
	testSetup(t, "http://localhost:8080")
	seedToken(t, configDir)

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf, false)

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	checks := []string{"admin", "ADMIN", "local"}
	for _, check := range checks {
		if !bytes.Contains(buf.Bytes(), []byte(check)) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if bytes.Contains(buf.Bytes(), []byte("stored-credential")) {
		t.Error("credential must never appear in output")
	}
}

func TestWhoamiCommand_ExpiredSession(t *testing.T) {
	testSetup(t, "http://localhost:1")
	token := &session.AuthorizationToken{
		Subject:   "admin",
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
		JWT:       "stale-credential",
	}
	if err := session.NewStore(configDir).Save(token); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf, false)

	if exitCode != exitAuth {
		t.Errorf("expected exit code %d for expired session, got %d", exitAuth, exitCode)
	}
}

func TestLogoutCommand_NoSession(t *testing.T) {
	testSetup(t, "http://localhost:8080")

	var buf bytes.Buffer
	exitCode := runLogout(context.Background(), &buf)

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Logged out")) {
		t.Error("expected logout confirmation")
	}
}
