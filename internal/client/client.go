// ABOUTME: REST client for the spvitamin admin API
// ABOUTME: Wraps authentication, admin and certificate store endpoints

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/nagypet/wstemplate/internal/session"
)

const (
	authenticatePath = "/api/spvitamin/authenticate"
	logoutPath       = "/api/spvitamin/logout"
)

// Client is the API client for a spvitamin-based backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// silent bypasses the auth transport so probing calls never trigger
	// the authorization failure side effect. Shares the cookie jar.
	silent    *http.Client
	transport *AuthTransport
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	timeout  time.Duration
	insecure bool
	logger   *zap.Logger
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithInsecureTLS disables server certificate verification. Explicit
// opt-in for self-signed admin endpoints.
func WithInsecureTLS() Option {
	return func(o *options) { o.insecure = true }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an API client with the given base URL. The token source
// feeds the bearer credential into every request.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	o := &options{
		timeout: 30 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	base := http.DefaultTransport
	if o.insecure {
		base = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	jar, _ := cookiejar.New(nil)
	transport := NewAuthTransport(base, tokens)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   o.timeout,
			Transport: transport,
			Jar:       jar,
		},
		silent: &http.Client{
			Timeout:   o.timeout,
			Transport: base,
			Jar:       jar,
		},
		transport: transport,
		logger:    o.logger,
	}
}

// SetAuthErrorHandler registers the session manager with the underlying
// transport. Called once during wiring.
func (c *Client) SetAuthErrorHandler(h AuthErrorHandler) {
	c.transport.SetErrorHandler(h)
}

// ResetCookies drops all cookies held for the backend.
func (c *Client) ResetCookies() {
	jar, _ := cookiejar.New(nil)
	c.httpClient.Jar = jar
	c.silent.Jar = jar
}

// Authenticate re-validates an existing server-side session (cookies
// only). It bypasses the auth transport so a 401 stays a plain error.
func (c *Client) Authenticate(ctx context.Context) (*session.AuthorizationToken, error) {
	return c.authenticate(ctx, c.silent, "")
}

// AuthenticateBasic exchanges a username/password pair for a token. The
// credentials travel once in the request header and are never stored.
func (c *Client) AuthenticateBasic(ctx context.Context, username, password string) (*session.AuthorizationToken, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return c.authenticate(ctx, c.httpClient, "Basic "+credentials)
}

// AuthenticateBearer exchanges a bearer credential for a fresh token.
func (c *Client) AuthenticateBearer(ctx context.Context, jwt string) (*session.AuthorizationToken, error) {
	return c.authenticate(ctx, c.httpClient, "Bearer "+jwt)
}

func (c *Client) authenticate(ctx context.Context, hc *http.Client, authorization string) (*session.AuthorizationToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+authenticatePath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	var token session.AuthorizationToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}

	c.logger.Debug("authenticated", zap.String("token", token.Redacted()))
	return &token, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, logoutPath, nil, nil)
}

// VersionInfo fetches the server's version and build metadata.
func (c *Client) VersionInfo(ctx context.Context) (*VersionInfo, error) {
	raw, err := c.getRaw(ctx, "/admin/version")
	if err != nil {
		return nil, err
	}
	return &VersionInfo{Raw: raw}, nil
}

// Settings fetches the displayed server parameters.
func (c *Client) Settings(ctx context.Context) ([]ServerParameter, error) {
	var settings []ServerParameter
	if err := c.get(ctx, "/admin/settings", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Shutdown asks the server to shut down.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.post(ctx, "/admin/shutdown", nil, nil)
}

// Keystore lists the entries of the server keystore.
func (c *Client) Keystore(ctx context.Context) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.get(ctx, "/keystore", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveKeystore persists the server keystore to disk.
func (c *Client) SaveKeystore(ctx context.Context) error {
	return c.post(ctx, "/keystore", nil, nil)
}

// CertEntries reads the entries contained in an uploaded certificate file.
func (c *Client) CertEntries(ctx context.Context, file CertificateFile) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.post(ctx, "/keystore/certificates", file, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ImportKeystoreEntry imports one aliased entry of a certificate file into
// the keystore and returns the updated entry list.
func (c *Client) ImportKeystoreEntry(ctx context.Context, file CertificateFile, alias string) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.post(ctx, "/keystore/privatekey", ImportRequest{CertificateFile: file, Alias: alias}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveKeystoreEntry deletes the aliased entry from the keystore and
// returns the updated entry list.
func (c *Client) RemoveKeystoreEntry(ctx context.Context, alias string) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.delete(ctx, "/keystore/privatekey/"+encodeAlias(alias), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Truststore lists the entries of the server truststore.
func (c *Client) Truststore(ctx context.Context) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.get(ctx, "/truststore", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ImportTruststoreEntry imports one aliased certificate into the
// truststore and returns the updated entry list.
func (c *Client) ImportTruststoreEntry(ctx context.Context, file CertificateFile, alias string) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.post(ctx, "/truststore/certificate", ImportRequest{CertificateFile: file, Alias: alias}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveTruststoreEntry deletes the aliased certificate from the
// truststore and returns the updated entry list.
func (c *Client) RemoveTruststoreEntry(ctx context.Context, alias string) ([]KeystoreEntry, error) {
	var entries []KeystoreEntry
	if err := c.delete(ctx, "/truststore/certificate/"+encodeAlias(alias), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// encodeAlias percent-encodes an entry alias for use as a path segment.
// Aliases may contain whitespace.
func encodeAlias(alias string) string {
	return url.PathEscape(alias)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("invalid response from backend: %w", err)
		}
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var errBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
		if errBody.Message != "" {
			apiErr.Message = errBody.Message
		} else {
			apiErr.Message = errBody.Error
		}
	}
	return apiErr
}
