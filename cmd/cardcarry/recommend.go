package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/engine"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank cards for your spending",
		Long: `Rank the card catalog against your spending profile.

Examples:
  cardcarry recommend -i me.yaml
  cardcarry recommend -i me.yaml -t ~/Downloads/*.ofx --mode statement --top 3
  cardcarry recommend -i me.yaml --plaid --since 2025-01-01 --explain`,
		RunE: runRecommend,
	}

	cmd.Flags().StringP("input", "i", "", "request file (JSON or YAML) with profile, preferences and estimate")
	addTransactionFlags(cmd)
	cmd.Flags().String("mode", "", fmt.Sprintf("weight preset (%s)", modeList()))
	cmd.Flags().IntP("top", "n", 0, "number of cards to show (0 uses matching.top_n)")
	cmd.Flags().Bool("explain", false, "show the per-criterion breakdown for each card")
	cmd.Flags().Bool("json", false, "print the full recommendation as JSON")

	return cmd
}

func modeList() string {
	modes := matcher.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// buildRequest merges the request file with transaction flags. Flag-loaded
// transactions are appended to any listed in the file.
func buildRequest(cmd *cobra.Command) (engine.Request, error) {
	s, err := requireSettings()
	if err != nil {
		return engine.Request{}, err
	}

	input, _ := cmd.Flags().GetString("input")
	req, err := loadRequest(input)
	if err != nil {
		return engine.Request{}, common.NewUserError("could not read the request file", err)
	}

	opts, err := transactionFlags(cmd)
	if err != nil {
		return engine.Request{}, err
	}
	if opts.hasSources() {
		txns, err := loadTransactions(cmd.Context(), s, opts)
		if err != nil {
			return engine.Request{}, err
		}
		req.Transactions = dedupe(append(req.Transactions, txns...))
	}
	return req, nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	s, err := requireSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")
	explain, _ := cmd.Flags().GetBool("explain")

	req, err := buildRequest(cmd)
	if err != nil {
		return err
	}
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		req.Mode = matcher.Mode(mode)
	}
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		req.TopN = top
	}

	eng, cleanup, err := newEngine(ctx, s)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := eng.Recommend(ctx, req)
	if err != nil {
		return common.NewUserError("could not rank cards", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, rec)
	}

	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Top cards (%s)", rec.Mode))); err != nil {
		return err
	}
	if err := cli.RenderMatches(out, rec.Results, eng.Cards()); err != nil {
		return err
	}
	if explain {
		for _, r := range rec.Results {
			if _, err := fmt.Fprintf(out, "\n%s\n", cli.HeaderStyle.Render(r.CardID)); err != nil {
				return err
			}
			if err := cli.RenderBreakdown(out, r); err != nil {
				return err
			}
		}
	}
	return nil
}
