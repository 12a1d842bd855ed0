// ABOUTME: Settings command listing the server parameters
// ABOUTME: Prints the displayed configuration of the administered service

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nagypet/wstemplate/internal/client"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List server settings",
	Long:  `Display the server parameters the administered service exposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSettings(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

// runSettings fetches and prints the server parameters and returns exit code
func runSettings(ctx context.Context, w io.Writer) int {
	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	settings, err := a.client.Settings(ctx)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatSettingsJSON(settings))
	} else {
		fmt.Fprint(w, formatSettingsHuman(settings))
	}
	return exitOK
}

// formatSettingsHuman renders one name/value pair per line
func formatSettingsHuman(settings []client.ServerParameter) string {
	width := 0
	for _, s := range settings {
		if len(s.Name) > width {
			width = len(s.Name)
		}
	}

	var out string
	for _, s := range settings {
		out += fmt.Sprintf("%-*s  %s\n", width, s.Name, s.Value)
	}
	return out
}

// formatSettingsJSON renders the parameter list as JSON
func formatSettingsJSON(settings []client.ServerParameter) string {
	data, _ := json.MarshalIndent(settings, "", "  ")
	return string(data)
}
