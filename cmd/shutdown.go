// ABOUTME: Shutdown command stopping the administered service
// ABOUTME: Requires explicit confirmation before asking the server to stop

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var shutdownYes bool

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down the backend",
	Long: `Ask the administered service to shut down.

Prompts for confirmation unless --yes is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runShutdown(ctx, os.Stdout, shutdownYes)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
	shutdownCmd.Flags().BoolVarP(&shutdownYes, "yes", "y", false, "Skip the confirmation prompt")
}

// runShutdown executes the shutdown request and returns exit code
func runShutdown(ctx context.Context, w io.Writer, confirmed bool) int {
	if !confirmed {
		var ok bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Shut down the backend?").
				Description("The service stops serving requests until it is restarted.").
				Value(&ok),
		))
		if err := form.Run(); err != nil {
			return fail(w, err)
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return exitOK
		}
	}

	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	if err := a.client.Shutdown(ctx); err != nil {
		return fail(w, err)
	}

	fmt.Fprintln(w, "Shutdown requested.")
	return exitOK
}
