package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("transactions", "t", nil, "statement files (OFX/QFX, or JSON/YAML transaction lists); globs allowed")
	cmd.Flags().Bool("plaid", false, "also fetch transactions from Plaid")
	cmd.Flags().Bool("simplefin", false, "also fetch transactions from a SimpleFIN bridge")
	cmd.Flags().String("since", "", "only use transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "only use transactions on or before this date (YYYY-MM-DD)")
}

func transactionFlags(cmd *cobra.Command) (transactionOptions, error) {
	files, _ := cmd.Flags().GetStringSlice("transactions")
	usePlaid, _ := cmd.Flags().GetBool("plaid")
	useSimpleFIN, _ := cmd.Flags().GetBool("simplefin")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")

	since, err := parseDateFlag(sinceStr)
	if err != nil {
		return transactionOptions{}, err
	}
	until, err := parseDateFlag(untilStr)
	if err != nil {
		return transactionOptions{}, err
	}
	if !until.IsZero() {
		// Inclusive of the whole day.
		until = until.AddDate(0, 0, 1).Add(-1)
	}

	return transactionOptions{
		Files:     files,
		Plaid:     usePlaid,
		SimpleFIN: useSimpleFIN,
		Since:     since,
		Until:     until,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
