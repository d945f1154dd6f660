package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

var backupsImportFile string

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage backup integrations.",
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backup integrations.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupService(cmd, func(ctx context.Context, svc *backups.Service) error {
			items, err := svc.List(ctx)
			if err != nil {
				return err
			}
			return printIntegrations(cmd.OutOrStdout(), items)
		})
	},
}

var backupsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import backup integrations from a YAML file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := strings.TrimSpace(backupsImportFile)
		if path == "" {
			return errors.New("-f is required")
		}
		raw, err := readImportFile(cmd, path)
		if err != nil {
			return err
		}
		docs, err := backups.DecodeDocuments(raw)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return errors.New("no documents found")
		}
		return withBackupService(cmd, func(ctx context.Context, svc *backups.Service) error {
			results := svc.ImportDocuments(ctx, docs)
			if failed := printImportResults(cmd.OutOrStdout(), results); failed > 0 {
				return silentExit(1)
			}
			return nil
		})
	},
}

var backupsTestCmd = &cobra.Command{
	Use:   "test <id>",
	Short: "Run the connection test of a stored backup integration.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackupService(cmd, func(ctx context.Context, svc *backups.Service) error {
			in, err := svc.TestStored(ctx, strings.TrimSpace(args[0]))
			if errors.Is(err, backups.ErrNotFound) {
				return fmt.Errorf("backup integration %q not found", args[0])
			}
			if in.ID == "" {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): connection test failed: %s\n", in.Config.Name, in.Kind, vulns.ErrorMessage(err))
				return silentExit(1)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): connection test succeeded\n", in.Config.Name, in.Kind)
			return nil
		})
	},
}

func init() {
	backupsImportCmd.Flags().StringVarP(&backupsImportFile, "file", "f", "", "YAML file with one integration per document (- for stdin)")
	backupsCmd.AddCommand(backupsListCmd, backupsImportCmd, backupsTestCmd)
}

func withBackupService(cmd *cobra.Command, fn func(context.Context, *backups.Service) error) error {
	cfg, err := config.LoadForDatabase()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, _, closeService, err := openBackupService(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer closeService()
	return fn(ctx, svc)
}

func readImportFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// printImportResults reports one line per document, followed by its field
// errors, and returns the number of failed documents.
func printImportResults(w io.Writer, results []backups.ImportResult) int {
	failed := 0
	for _, res := range results {
		name := res.Name
		if name == "" {
			name = "(unnamed)"
		}
		if res.Err == nil {
			fmt.Fprintf(w, "document %d: imported %s %q as %s\n", res.Index, res.Integration.Kind, name, res.Integration.ID)
			continue
		}
		failed++
		var fieldErrs backups.FieldErrors
		if !errors.As(res.Err, &fieldErrs) {
			fmt.Fprintf(w, "document %d: %s: %v\n", res.Index, name, res.Err)
			continue
		}
		fmt.Fprintf(w, "document %d: %s: invalid\n", res.Index, name)
		for _, field := range backups.Fields(backups.NormalizeKind(res.Kind)) {
			if msg, ok := fieldErrs[field]; ok {
				fmt.Fprintf(w, "  %s: %s\n", backups.FieldLabel(field), msg)
			}
		}
	}
	fmt.Fprintf(w, "%d imported, %d failed\n", len(results)-failed, failed)
	return failed
}

func printIntegrations(w io.Writer, items []backups.Integration) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No backup integrations configured")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tBUCKET\tRETAIN\tUPDATED")
	for _, in := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			in.ID, in.Kind, in.Config.Name, in.Config.Bucket, in.Config.BackupsToRetain,
			in.UpdatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
