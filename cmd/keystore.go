// ABOUTME: Keystore command group for the server keystore
// ABOUTME: Lists, imports, removes and persists private key entries

package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nagypet/wstemplate/internal/client"
)

var (
	certFilePath     string
	certFilePassword string
	certAlias        string
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage the server keystore",
	Long:  `List, import and remove entries of the server keystore.`,
}

var keystoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keystore entries",
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			entries, err := a.client.Keystore(ctx)
			if err != nil {
				return fail(w, err)
			}
			printEntries(w, entries)
			return exitOK
		})
	},
}

var keystoreImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an entry from a certificate file",
	Long: `Upload a certificate file and import one aliased entry into the keystore.

Without --alias the entries contained in the file are listed instead.

Example:
  spvadmin keystore import --file server.p12 --password changeit --alias server`,
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			file, err := readCertificateFile(certFilePath, certFilePassword)
			if err != nil {
				return fail(w, err)
			}

			if certAlias == "" {
				entries, err := a.client.CertEntries(ctx, file)
				if err != nil {
					return fail(w, err)
				}
				fmt.Fprintln(w, "Entries in the uploaded file, pick one with --alias:")
				printEntries(w, entries)
				return exitOK
			}

			entries, err := a.client.ImportKeystoreEntry(ctx, file, certAlias)
			if err != nil {
				return fail(w, err)
			}
			fmt.Fprintf(w, "Imported %q.\n", certAlias)
			printEntries(w, entries)
			return exitOK
		})
	},
}

var keystoreRemoveCmd = &cobra.Command{
	Use:   "remove <alias>",
	Short: "Remove a keystore entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			entries, err := a.client.RemoveKeystoreEntry(ctx, args[0])
			if err != nil {
				return fail(w, err)
			}
			fmt.Fprintf(w, "Removed %q.\n", args[0])
			printEntries(w, entries)
			return exitOK
		})
	},
}

var keystoreSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the keystore on the server",
	Run: func(cmd *cobra.Command, args []string) {
		runStoreCommand(func(ctx context.Context, a *app, w io.Writer) int {
			if err := a.client.SaveKeystore(ctx); err != nil {
				return fail(w, err)
			}
			fmt.Fprintln(w, "Keystore saved.")
			return exitOK
		})
	},
}

func init() {
	rootCmd.AddCommand(keystoreCmd)
	keystoreCmd.AddCommand(keystoreListCmd)
	keystoreCmd.AddCommand(keystoreImportCmd)
	keystoreCmd.AddCommand(keystoreRemoveCmd)
	keystoreCmd.AddCommand(keystoreSaveCmd)

	keystoreImportCmd.Flags().StringVar(&certFilePath, "file", "", "Certificate file to upload")
	keystoreImportCmd.Flags().StringVar(&certFilePassword, "password", "", "Password protecting the file")
	keystoreImportCmd.Flags().StringVar(&certAlias, "alias", "", "Alias of the entry to import")
	keystoreImportCmd.MarkFlagRequired("file")
}

// runStoreCommand wires the app and runs one certificate store action.
func runStoreCommand(run func(ctx context.Context, a *app, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		os.Exit(fail(os.Stdout, err))
	}
	defer a.close()

	if exitCode := run(ctx, a, os.Stdout); exitCode != 0 {
		os.Exit(exitCode)
	}
}

// readCertificateFile loads and base64-encodes a certificate file for upload.
func readCertificateFile(path, password string) (client.CertificateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return client.CertificateFile{}, fmt.Errorf("read certificate file: %w", err)
	}
	return client.CertificateFile{
		Content:  base64.StdEncoding.EncodeToString(data),
		Password: password,
	}, nil
}

// printEntries renders an entry list, honoring the --json flag.
func printEntries(w io.Writer, entries []client.KeystoreEntry) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprint(w, formatEntriesHuman(entries))
}

// formatEntriesHuman renders one line per entry plus its chain.
func formatEntriesHuman(entries []client.KeystoreEntry) string {
	if len(entries) == 0 {
		return "No entries.\n"
	}

	var out string
	for _, e := range entries {
		flags := ""
		if abbr := e.TypeAbbr(); abbr != "" {
			flags += " [" + abbr + "]"
		}
		if e.InUse {
			flags += " (in use)"
		}
		if !e.Valid {
			flags += " INVALID"
		}
		out += fmt.Sprintf("%s%s\n", e.Alias, flags)
		for _, cert := range e.Chain {
			validity := "valid"
			if !cert.Valid {
				validity = "EXPIRED"
			}
			out += fmt.Sprintf("    %s  issued by %s  until %s  %s\n",
				cert.SubjectCN, cert.IssuerCN, cert.ValidTo.Format(time.DateOnly), validity)
		}
	}
	return out
}
