package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize [merchant...]",
		Short: "Resolve merchants to spending categories",
		Long: `Resolve merchant names to canonical categories using the knowledge store,
then fuzzy matching, then the inference service when one is configured.
Confident inferences are learned so the next lookup is an exact match.

Examples:
  cardcarry categorize "SWIGGY BANGALORE" Zepto
  cardcarry categorize -t ~/Downloads/hdfc_*.ofx`,
		RunE: runCategorize,
	}

	addTransactionFlags(cmd)
	cmd.Flags().Bool("json", false, "print results as JSON")
	cmd.Flags().Bool("all", false, "also resolve merchants whose transactions already carry a category")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	s, err := requireSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")
	all, _ := cmd.Flags().GetBool("all")

	opts, err := transactionFlags(cmd)
	if err != nil {
		return err
	}

	names := append([]string(nil), args...)
	if opts.hasSources() {
		txns, err := loadTransactions(ctx, s, opts)
		if err != nil {
			return err
		}
		names = append(names, merchantsOf(txns, all)...)
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to categorize: pass merchant names or --transactions")
	}

	deps, err := newCategorizer(ctx, s, newNormalizer())
	if err != nil {
		return err
	}
	defer deps.Close()

	var (
		onResult func(string, categorizer.Result)
		bar      *progressbar.ProgressBar
	)
	if distinct := distinctKeys(names); !asJSON && distinct > 1 {
		bar = cli.NewProgressBar(cmd.ErrOrStderr(), distinct, "Categorizing merchants...")
		onResult = func(string, categorizer.Result) {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	results := deps.categorizer.CategorizeAllFunc(ctx, names, onResult)
	if bar != nil {
		_ = bar.Finish()
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	return cli.RenderResolutions(cmd.OutOrStdout(), results)
}

// merchantsOf lists distinct merchant names in first-seen order, skipping
// rows that already have a category unless all is set.
func merchantsOf(txns []model.Transaction, all bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range txns {
		if t.Merchant == "" || (!all && t.Category != "") || seen[t.Merchant] {
			continue
		}
		seen[t.Merchant] = true
		out = append(out, t.Merchant)
	}
	return out
}

// distinctKeys counts the lookups CategorizeAll will make for names.
func distinctKeys(names []string) int {
	keys := make(map[string]struct{}, len(names))
	for _, n := range names {
		keys[categorizer.MerchantKey(n)] = struct{}{}
	}
	return len(keys)
}
