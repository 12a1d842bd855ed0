// ABOUTME: Whoami command showing the stored session
// ABOUTME: Optionally decodes the raw claims of the bearer credential

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/nagypet/wstemplate/internal/session"
)

var whoamiVerbose bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Long:  `Display the stored session: user, roles and remaining validity.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout, whoamiVerbose)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiVerbose, "verbose", false, "Also show the decoded claims of the stored credential")
}

// runWhoami prints the session state and returns exit code
func runWhoami(ctx context.Context, w io.Writer, verbose bool) int {
	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	// A failed backend logout during the check does not matter here, an
	// absent or expired token means logged out either way.
	token, _ := a.sessions.CheckToken(ctx, nil)
	if token == nil {
		fmt.Fprintln(w, "Not logged in.")
		return exitAuth
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(token))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(token))
	}

	if verbose {
		if err := printRawClaims(w, token.JWT); err != nil {
			fmt.Fprintf(w, "Cannot decode credential: %v\n", err)
		}
	}
	return exitOK
}

// formatWhoamiHuman formats the session for human readability
func formatWhoamiHuman(token *session.AuthorizationToken) string {
	validMinutes := (token.ValidSeconds(time.Now()) + 30) / 60
	return fmt.Sprintf(`User:     %s
Subject:  %s
Roles:    %s
Source:   %s
Expires:  %s (%d minutes left)`,
		token.DisplayName(),
		token.Subject,
		strings.Join(token.Roles, ", "),
		token.Source,
		token.ExpiresAt.Format(time.RFC3339),
		validMinutes)
}

// formatWhoamiJSON formats the session as JSON, credential stripped
func formatWhoamiJSON(token *session.AuthorizationToken) string {
	return token.Redacted()
}

// printRawClaims decodes the credential claims without verifying the
// signature. The signing key lives on the server only.
func printRawClaims(w io.Writer, credential string) error {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return err
	}

	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nClaims:")
	for _, name := range names {
		value, _ := json.Marshal(claims[name])
		fmt.Fprintf(w, "  %-20s %s\n", name, value)
	}
	return nil
}
