package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Inspect the card catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			c, err := loadCatalog(s)
			if err != nil {
				return err
			}
			return cli.RenderCatalog(cmd.OutOrStdout(), c.Cards)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <card-id>",
		Short: "Show one card's benefits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			c, err := loadCatalog(s)
			if err != nil {
				return err
			}
			card, ok := c.Find(args[0])
			if !ok {
				return common.NewUserError(fmt.Sprintf("no card %q in the catalog", args[0]), common.ErrNotFound)
			}
			return cli.RenderCard(cmd.OutOrStdout(), card)
		},
	})

	return cmd
}
