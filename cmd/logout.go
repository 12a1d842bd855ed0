// ABOUTME: Logout command ending the current session
// ABOUTME: Clears the stored token and invalidates the server-side session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the backend",
	Long:  `End the current session. The stored token is cleared even when the backend cannot be reached.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// runLogout executes the logout and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	if err := a.sessions.Logout(ctx, false); err != nil {
		// Local state is already cleared at this point.
		fmt.Fprintf(w, "Warning: backend logout failed: %v\n", err)
		fmt.Fprintln(w, "Local session cleared.")
		return exitError
	}

	fmt.Fprintln(w, "Logged out.")
	return exitOK
}
