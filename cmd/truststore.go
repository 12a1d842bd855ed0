// ABOUTME: Truststore command group for the server truststore
// ABOUTME: Lists, imports and removes trusted certificates

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	trustFilePath     string
	trustFilePassword string
	trustAlias        string
)

var truststoreCmd = &cobra.Command{
	Use:   "truststore",
	Short: "Manage the server truststore",
	Long:  `List, import and remove trusted certificates of the server truststore.`,
}

var truststoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List truststore entries",
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			entries, err := a.client.Truststore(ctx)
			if err != nil {
				return fail(w, err)
			}
			printEntries(w, entries)
			return exitOK
		})
	},
}

var truststoreImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a certificate from a file",
	Long: `Upload a certificate file and import one aliased certificate into the truststore.

Without --alias the entries contained in the file are listed instead.

Example:
  spvadmin truststore import --file ca-root.cer --alias ca-root`,
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			file, err := readCertificateFile(trustFilePath, trustFilePassword)
			if err != nil {
				return fail(w, err)
			}

			if trustAlias == "" {
				entries, err := a.client.CertEntries(ctx, file)
				if err != nil {
					return fail(w, err)
				}
				fmt.Fprintln(w, "Entries in the uploaded file, pick one with --alias:")
				printEntries(w, entries)
				return exitOK
			}

			entries, err := a.client.ImportTruststoreEntry(ctx, file, trustAlias)
			if err != nil {
				return fail(w, err)
			}
			fmt.Fprintf(w, "Imported %q.\n", trustAlias)
			printEntries(w, entries)
			return exitOK
		})
	},
}

var truststoreRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Remove a truststore entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			entries, err := a.client.RemoveTruststoreEntry(ctx, args[0])
			if err != nil {
				return fail(w, err)
			}
			fmt.Fprintf(w, "Removed %q.\n", args[0])
			printEntries(w, entries)
			return exitOK
		})
	},
}

func init() {
	rootCmd.AddCommand(truststoreCmd)
	truststoreCmd.AddCommand(truststoreListCmd)
	truststoreCmd.AddCommand(truststoreImportCmd)
	truststoreCmd.AddCommand(truststoreRemoveCmd)

	truststoreImportCmd.Flags().StringVar(&trustFilePath, "file", "", "Certificate file to upload")
	truststoreImportCmd.Flags().StringVar(&trustFilePassword, "password", "", "Password protecting the file")
	truststoreImportCmd.Flags().StringVar(&trustAlias, "alias", "", "Alias of the certificate to import")
	truststoreImportCmd.MarkFlagRequired("file")
}
