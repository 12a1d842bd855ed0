// ABOUTME: Root command for the spvadmin console
// ABOUTME: Handles global flags and wires the client, session and guard

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nagypet/wstemplate/internal/client"
	"github.com/nagypet/wstemplate/internal/config"
	"github.com/nagypet/wstemplate/internal/guard"
	"github.com/nagypet/wstemplate/internal/logging"
	"github.com/nagypet/wstemplate/internal/session"
)

var (
	serverURL   string
	jsonOutput  bool
	configDir   string
	insecureTLS bool
)

// Exit codes: 0 success, 1 authorization failure, 2 connection or server error.
const (
	exitOK    = 0
	exitAuth  = 1
	exitError = 2
)

// rootCmd is the base command. Invoked bare it starts the interactive console.
var rootCmd = &cobra.Command{
	Use:   "spvadmin",
	Short: "Admin console for spvitamin services",
	Long: `spvadmin is a terminal admin console for spvitamin-based backend services.

It manages the login session, inspects server settings and version info,
and edits the server keystore and truststore.

Invoked without a subcommand it starts the interactive console.

Environment Variables:
  SPVADMIN_URL                   Backend base URL
  SPVADMIN_TIMEOUT_SECONDS       HTTP timeout (default: 30)
  SPVADMIN_INSECURE_SKIP_VERIFY  Skip TLS verification (default: false)
  SPVADMIN_CONFIG_DIR            Token and log directory (default: XDG config dir)
  SPVADMIN_RENEW_BELOW_SECONDS   Console renew threshold (default: 60)
  SPVADMIN_LOG_LEVEL             debug, info, warn, error (default: info)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Backend base URL (overrides SPVADMIN_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Token and log directory (overrides SPVADMIN_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&insecureTLS, "insecure", false, "Skip TLS certificate verification")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// app bundles the wired components behind the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.Store
	client   *client.Client
	sessions *session.Manager
	guard    *guard.Guard
}

// newApp loads the configuration and wires client, session manager and
// guard together. The notifier may be nil for plain command output.
func newApp(notifier session.Notifier) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	if insecureTLS {
		cfg.InsecureSkipVerify = true
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("no backend URL configured, set SPVADMIN_URL or pass --url")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.ConfigDir)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cfg.ConfigDir)

	clientOpts := []client.Option{
		client.WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		client.WithLogger(logger),
	}
	if cfg.InsecureSkipVerify {
		clientOpts = append(clientOpts, client.WithInsecureTLS())
	}
	c := client.New(cfg.ServerURL, store, clientOpts...)

	sessions := session.NewManager(c, store, notifier, logger)
	c.SetAuthErrorHandler(sessions)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   c,
		sessions: sessions,
		guard:    guard.New(sessions, logger),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// exitCode classifies an error for the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if client.IsUnauthorized(err) {
		return exitAuth
	}
	return exitError
}

func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitCode(err)
}
