package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

func llmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Check the merchant inference service",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test <merchant...>",
		Short: "Ask the inference service about merchants without learning",
		Long: `Send merchant names straight to the configured inference provider and
print its answers. Nothing is written to the knowledge store.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			svc, err := newInferrer(s)
			if err != nil {
				return err
			}
			if svc == nil {
				return common.NewUserError("no inference provider configured; set llm.provider", common.ErrMissingConfig)
			}
			defer func() { _ = svc.Close() }()

			out := cmd.OutOrStdout()
			for _, name := range args {
				inf, err := svc.InferMerchant(cmd.Context(), name)
				if err != nil {
					if _, werr := fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", name, err))); werr != nil {
						return werr
					}
					continue
				}
				body := fmt.Sprintf("Category:    %s\nSubcategory: %s\nNormalized:  %s\nConfidence:  %.2f\nReasoning:   %s",
					inf.Category, inf.Subcategory, inf.MerchantNormalized, inf.Confidence, inf.Reasoning)
				if _, err := fmt.Fprintln(out, cli.RenderBox(cli.RobotIcon+" "+name, body)); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}
