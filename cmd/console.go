// ABOUTME: Console command starting the interactive TUI
// ABOUTME: Also runs when spvadmin is invoked without a subcommand

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nagypet/wstemplate/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console",
	Long:  `Start the full-screen interactive admin console. This is the default when no subcommand is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole() error {
	notifier := tui.NewNotifier()
	a, err := newApp(notifier)
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(tui.Deps{
		Client:            a.client,
		Sessions:          a.sessions,
		Guard:             a.guard,
		Notifier:          notifier,
		Logger:            a.logger,
		RenewBelowSeconds: a.cfg.RenewBelowSeconds,
		ServerURL:         a.cfg.ServerURL,
	})
}
