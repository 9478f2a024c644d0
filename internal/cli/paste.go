package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nestegg-app/nestegg/internal/backend"
	"github.com/nestegg-app/nestegg/internal/daemon"
	"github.com/nestegg-app/nestegg/internal/domain"
	"github.com/nestegg-app/nestegg/internal/normalize"
	"github.com/nestegg-app/nestegg/internal/reconcile"
)

func init() {
	rootCmd.AddCommand(pasteCmd)
	pasteCmd.Flags().StringP("file", "f", "", "Read pasted text from a file instead of stdin")
	pasteCmd.Flags().StringP("account", "a", "", "Account hint to disambiguate identifier matches")
	pasteCmd.Flags().Bool("dry-run", false, "Show the diff without submitting")
}

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Bulk-apply pasted balances and submit the diff",
	Long: `Parse tab- or comma-separated identifier/value lines (a statement
pasted from a spreadsheet), match them against the live portfolio,
and submit the changed balances as one batch.

Example:
  pbpaste | nestegg paste
  nestegg paste -f balances.csv --account Schwab`,
	RunE: runPaste,
}

func runPaste(cmd *cobra.Command, args []string) error {
	text, err := readPasteInput(cmd)
	if err != nil {
		return err
	}

	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return err
	}
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout())
	ctx := cmd.Context()

	rows, err := fetchRows(ctx, client)
	if err != nil {
		return fmt.Errorf("fetch portfolio: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("portfolio is empty; is the server running at %s?", cfg.Backend.URL)
	}

	store := reconcile.NewStore()
	hint, _ := cmd.Flags().GetString("account")
	res := reconcile.ApplyPaste(store, rows, text, hint)

	if res.HeaderSkipped {
		fmt.Println("Skipped header line.")
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}
	fmt.Printf("Matched %d line(s), %d failed.\n", res.SuccessCount, res.FailedCount)

	changed := store.ChangedRows(rows)
	if len(changed) == 0 {
		fmt.Println("No balances changed; nothing to submit.")
		return nil
	}

	printDiff(changed)

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		fmt.Println("Dry run; not submitting.")
		return nil
	}

	coord := reconcile.NewCoordinator(client, cfg.Submit.SubmitPolicy())
	result, err := coord.Submit(ctx, changed, func(p domain.Progress) {
		fmt.Printf("\rSubmitting %d/%d...", p.Current, p.Total)
	})
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("Submitted: %d succeeded, %d failed.\n", result.SuccessCount, result.FailedCount)
	for _, key := range result.FailedKeys {
		fmt.Fprintf(os.Stderr, "failed: %s\n", key)
	}
	if result.FailedCount > 0 {
		return fmt.Errorf("%d update(s) failed", result.FailedCount)
	}
	return nil
}

// readPasteInput reads the pasted text from --file or stdin.
func readPasteInput(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input on stdin; pipe pasted text or use -f")
	}
	return string(data), nil
}

// fetchRows pulls all four collections and normalizes them into rows.
func fetchRows(ctx context.Context, client *backend.Client) ([]domain.Row, error) {
	accounts, err := client.FetchAccounts(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := client.FetchPositions(ctx)
	if err != nil {
		return nil, err
	}
	liabilities, err := client.FetchLiabilities(ctx)
	if err != nil {
		return nil, err
	}
	otherAssets, err := client.FetchOtherAssets(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.Rows(normalize.Collections{
		Accounts:    accounts,
		Positions:   positions,
		Liabilities: liabilities,
		OtherAssets: otherAssets,
	}), nil
}

// printDiff renders the changed rows as a before/after table.
func printDiff(changed []domain.ChangedRow) {
	fmt.Printf("\n%-28s %-14s %14s %14s %10s\n", "NAME", "INSTITUTION", "CURRENT", "NEW", "CHANGE")
	for _, cr := range changed {
		fmt.Printf("%-28s %-14s %14.2f %14.2f %+9.1f%%\n",
			truncate(cr.Name, 28), truncate(cr.Institution, 14),
			cr.BaselineValue, cr.NewValue, cr.DeltaPercent)
	}
	fmt.Println()
}

// truncate shortens s to at most n runes. Rune-based so multibyte names are
// never split mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
