package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tubeharvest/internal/ledger"
	"tubeharvest/internal/workspace"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the processed-video ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "show <channel>",
		Short: "List ledger records for a channel, newest write last",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var want ledger.Status
			if strings.TrimSpace(statusFilter) != "" {
				want, err = ledger.ParseStatus(statusFilter)
				if err != nil {
					return err
				}
			}

			channel := strings.TrimSpace(args[0])
			provider, err := ledger.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer provider.Close()

			ws := workspace.ForChannel(cfg.Paths.WorkspaceDir, channel, workspace.FoldersFromConfig(cfg), workspace.NamingFromConfig(cfg))
			l, err := provider.ForChannel(cmd.Context(), channel, ws.Root)
			if err != nil {
				return err
			}
			records, err := l.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list ledger: %w", err)
			}

			out := cmd.OutOrStdout()
			rows := ledgerRows(records, want, limit)
			if len(rows) == 0 {
				fmt.Fprintf(out, "No ledger records for %s\n", channel)
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Video ID", "Uploaded", "Scraped", "Status", "Reason", "Detail"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status (pending, success, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many of the newest records")
	return cmd
}

func ledgerRows(records []ledger.Record, want ledger.Status, limit int) [][]string {
	title := cases.Title(language.English)
	var rows [][]string
	for _, rec := range records {
		if want != "" && rec.Status != want {
			continue
		}
		reason := strings.ReplaceAll(string(rec.Reason), "_", " ")
		if reason == "" {
			reason = "-"
		}
		rows = append(rows, []string{
			rec.VideoID,
			rec.UploadDate,
			rec.ScrapeDate(),
			title.String(strings.ToLower(string(rec.Status))),
			reason,
			truncate(rec.Detail, 50),
		})
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows
}
