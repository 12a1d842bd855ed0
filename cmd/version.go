// ABOUTME: Version command showing backend build metadata
// ABOUTME: Projects well-known fields out of the version document

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

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show backend version info",
	Long:  `Display the version and build metadata of the administered service.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runVersion(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion fetches and prints the version info and returns exit code
func runVersion(ctx context.Context, w io.Writer) int {
	a, err := newApp(nil)
	if err != nil {
		return fail(w, err)
	}
	defer a.close()

	info, err := a.client.VersionInfo(ctx)
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, string(info.Raw))
		return exitOK
	}

	for _, field := range info.Fields() {
		fmt.Fprintf(w, "%-24s %s\n", field.Name+":", field.Value)
	}
	return exitOK
}
