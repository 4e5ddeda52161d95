package main

import (
	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
)

func deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Show the spending profile derived from your data",
		Long: `Derive the feature vector recommendations are scored against: monthly
spend per category, fee tolerance, travel intensity and the rest.

Statements win over a self-reported estimate when both are present.`,
		RunE: runDerive,
	}

	cmd.Flags().StringP("input", "i", "", "request file (JSON or YAML) with profile, preferences and estimate")
	addTransactionFlags(cmd)
	cmd.Flags().Bool("json", false, "print the feature vector as JSON")

	return cmd
}

func runDerive(cmd *cobra.Command, _ []string) error {
	s, err := requireSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	req, err := buildRequest(cmd)
	if err != nil {
		return err
	}

	eng, cleanup, err := newEngine(ctx, s)
	if err != nil {
		return err
	}
	defer cleanup()

	features, _ := eng.Profile(ctx, req)

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), features)
	}
	return cli.RenderFeatures(cmd.OutOrStdout(), features)
}
