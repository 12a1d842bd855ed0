// ABOUTME: Tests for the spvitamin admin API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nagypet/wstemplate/internal/session"
)

func tokenResponse() session.AuthorizationToken {
	return session.AuthorizationToken{
		Subject:   "admin",
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		UserID:    "1",
		Roles:     []string{"ADMIN"},
		Source:    "local",
		JWT:       "issued-credential",
	}
}

func TestAuthenticateBasic_SendsCredentialsOnce(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/spvitamin/authenticate" {
			t.Errorf("expected authenticate path, got %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(tokenResponse())
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	token, err := c.AuthenticateBasic(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:s3cret"))
	if gotAuth != want {
		t.Errorf("expected %q, got %q", want, gotAuth)
	}
	if token.Subject != "admin" || token.JWT != "issued-credential" {
		t.Errorf("unexpected token %+v", token)
	}
}

func TestAuthenticateBearer_SendsBearerHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(tokenResponse())
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	if _, err := c.AuthenticateBearer(context.Background(), "old-credential"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer old-credential" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestAuthenticate_SilentBypassesAuthErrorHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	handler := &recordingHandler{}
	c := New(server.URL, staticTokens{})
	c.SetAuthErrorHandler(handler)

	if _, err := c.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if handler.count() != 0 {
		t.Errorf("silent authenticate must not fire the auth error handler, got %d calls", handler.count())
	}
}

func TestAuthenticateBasic_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "bad credentials", "status": 401})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	_, err := c.AuthenticateBasic(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected unauthorized classification, got %v", err)
	}
}

func TestLogout_PostsEmptyBody(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/spvitamin/logout" {
		t.Errorf("expected POST /api/spvitamin/logout, got %s %s", gotMethod, gotPath)
	}
}

func TestVersionInfo_Projections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/version" {
			t.Errorf("expected /admin/version, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"Version":"2.1.0","Build time":"2025-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	info, err := c.VersionInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version() != "2.1.0" {
		t.Errorf("expected version 2.1.0, got %q", info.Version())
	}
	if info.BuildTime() != "2025-05-01T10:00:00Z" {
		t.Errorf("unexpected build time %q", info.BuildTime())
	}
	if fields := info.Fields(); len(fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fields))
	}
}

func TestSettings_DecodesParameterList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]ServerParameter{
			{Name: "server.port", Value: "8080"},
			{Name: "server.ssl.enabled", Value: "true"},
		})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	settings, err := c.Settings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settings) != 2 || settings[0].Name != "server.port" {
		t.Errorf("unexpected settings %+v", settings)
	}
}

func TestKeystore_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keystore" {
			t.Errorf("expected /keystore, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]KeystoreEntry{
			{Alias: "server cert", Type: "PRIVATE_KEY_ENTRY", InUse: true, Valid: true,
				Chain: []CertInfo{{SubjectCN: "example.com", Valid: true}}},
		})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	entries, err := c.Keystore(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Alias != "server cert" {
		t.Errorf("unexpected entries %+v", entries)
	}
	if entries[0].TypeAbbr() != "PK" {
		t.Errorf("expected PK abbreviation, got %q", entries[0].TypeAbbr())
	}
}

func TestRemoveKeystoreEntry_EncodesAlias(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode([]KeystoreEntry{})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	if _, err := c.RemoveKeystoreEntry(context.Background(), "server cert"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/keystore/privatekey/server%20cert" {
		t.Errorf("alias not percent-encoded: %s", gotPath)
	}
}

func TestImportTruststoreEntry_SendsFileAndAlias(t *testing.T) {
	var gotBody ImportRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/truststore/certificate" {
			t.Errorf("expected truststore import path, got %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode([]KeystoreEntry{{Alias: "ca-root"}})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	file := CertificateFile{Content: "AAEC", Password: "changeit"}
	entries, err := c.ImportTruststoreEntry(context.Background(), file, "ca-root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Alias != "ca-root" || gotBody.CertificateFile.Content != "AAEC" {
		t.Errorf("unexpected request body %+v", gotBody)
	}
	if len(entries) != 1 {
		t.Errorf("expected updated entry list, got %+v", entries)
	}
}

func TestShutdown_Post(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/admin/shutdown" {
		t.Errorf("expected POST /admin/shutdown, got %s %s", gotMethod, gotPath)
	}
}

func TestConnectionError(t *testing.T) {
	c := New("http://localhost:1", staticTokens{})
	if _, err := c.Keystore(context.Background()); err == nil {
		t.Error("expected connection error, got nil")
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Settings(ctx); err == nil {
		t.Error("expected error for canceled context, got nil")
	}
}

func TestErrorBodyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": "keystore locked"})
	}))
	defer server.Close()

	c := New(server.URL, staticTokens{})
	_, err := c.Keystore(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "keystore locked" || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
}
