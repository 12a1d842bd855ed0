// ABOUTME: Login command establishing a session with the backend
// ABOUTME: Prompts for missing credentials with an interactive form

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Authenticate against the backend and store the session token.

Credentials not given as flags are prompted for interactively.

Example:
  spvadmin login -u admin`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, loginUsername, loginPassword)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Login username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Login password (prompted when omitted)")
}

// runLogin executes the login and returns exit code
func runLogin(ctx context.Context, w io.Writer, username, password string) int {
	if username == "" || password == "" {
		var err error
		username, password, err = promptCredentials(username)
		if err != nil {
			return fail(w, err)
		}
	}

	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	token, err := a.sessions.Login(ctx, username, password, false)
	if err != nil {
		return fail(w, err)
	}

	validMinutes := (token.ValidSeconds(time.Now()) + 30) / 60
	fmt.Fprintf(w, "Logged in as %s. Session valid for %d minutes.\n", token.DisplayName(), validMinutes)
	return exitOK
}

// promptCredentials asks for the missing credentials interactively.
func promptCredentials(username string) (string, string, error) {
	var password string
	fields := []huh.Field{}
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("username is required")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password))

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return username, password, nil
}
