package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/categorizer"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

const importConfidence = 0.95

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Manage the merchant knowledge store",
		Long:  `List, add, delete, and bulk-import merchant categorizations.`,
	}

	cmd.AddCommand(merchantsListCmd())
	cmd.AddCommand(merchantsAddCmd())
	cmd.AddCommand(merchantsDeleteCmd())
	cmd.AddCommand(merchantsImportCmd())

	return cmd
}

func merchantsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known merchants",
		Long:  `List merchants, most used first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")
			source, _ := cmd.Flags().GetString("source")
			query, _ := cmd.Flags().GetString("query")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := service.MerchantFilter{
				Source: model.MerchantSource(source),
				Query:  query,
				Limit:  limit,
			}
			if category != "" {
				c, err := parseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = c
			}

			store, cleanup, err := openStore(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := store.ListMerchants(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list merchants: %w", err)
			}
			return cli.RenderMerchants(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().String("category", "", "only this canonical category")
	cmd.Flags().String("source", "", "only this source (seed, manual, ai-learned)")
	cmd.Flags().StringP("query", "q", "", "substring of the key or canonical name")
	cmd.Flags().Int("limit", 50, "maximum rows (0 for all)")

	return cmd
}

func merchantsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <merchant>",
		Short: "Add or replace a merchant",
		Long: `Record a merchant's category by hand. Manual entries are exact-match
hits with full confidence and replace any existing entry for the key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			categoryFlag, _ := cmd.Flags().GetString("category")
			subcategory, _ := cmd.Flags().GetString("subcategory")
			keywords, _ := cmd.Flags().GetStringSlice("keywords")

			category, err := parseCategory(categoryFlag)
			if err != nil {
				return err
			}

			record := newMerchantRecord(args[0], category, subcategory, keywords)
			record.Source = model.MerchantSourceManual
			record.Confidence = 1.0

			store, cleanup, err := openStore(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.SaveMerchant(cmd.Context(), record); err != nil {
				return fmt.Errorf("failed to save merchant: %w", err)
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Saved %s as %s", record.RawKey, record.Category)))
			return nil
		},
	}

	cmd.Flags().StringP("category", "c", "", "canonical category (required)")
	cmd.Flags().String("subcategory", "", "free-text subcategory")
	cmd.Flags().StringSlice("keywords", nil, "lookup keywords (default: derived from the name)")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func merchantsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <merchant>",
		Short: "Delete a merchant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			yes, _ := cmd.Flags().GetBool("yes")
			key := categorizer.MerchantKey(args[0])

			if !yes {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				ok, err := cli.Confirm(ctx, reader, cmd.OutOrStdout(), fmt.Sprintf("Delete merchant %q?", key))
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println(cli.FormatInfo("Nothing deleted."))
					return nil
				}
			}

			store, cleanup, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.DeleteMerchant(ctx, key); err != nil {
				return common.NewUserError(fmt.Sprintf("could not delete %q", key), err)
			}
			cmd.Println(cli.FormatSuccess("Deleted " + key))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip confirmation")

	return cmd
}

// merchantImport is one entry of an import file.
type merchantImport struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Subcategory string   `json:"subcategory" yaml:"subcategory"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
}

type merchantImportFile struct {
	Merchants []merchantImport `json:"merchants" yaml:"merchants"`
}

func merchantsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Seed merchants from a JSON or YAML file",
		Long: `Import merchants as seed entries. The file holds a "merchants" list whose
entries have name, category and optional subcategory, keywords and confidence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := requireSettings()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			records, err := readMerchantImport(args[0])
			if err != nil {
				return common.NewUserError("could not read the import file", err)
			}

			store, cleanup, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, r := range records {
				if err := store.SaveMerchant(ctx, r); err != nil {
					return fmt.Errorf("failed to save %s: %w", r.RawKey, err)
				}
				slog.Debug("Imported merchant", "merchant", r.RawKey, "category", r.Category)
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d merchants", len(records))))
			return nil
		},
	}
}

func readMerchantImport(path string) ([]*model.MerchantRecord, error) {
	var file merchantImportFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}

	records := make([]*model.MerchantRecord, 0, len(file.Merchants))
	for i, m := range file.Merchants {
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("merchant %d has no name", i)
		}
		category, err := parseCategory(m.Category)
		if err != nil {
			return nil, fmt.Errorf("merchant %s: %w", m.Name, err)
		}
		r := newMerchantRecord(m.Name, category, m.Subcategory, m.Keywords)
		r.Source = model.MerchantSourceSeed
		r.Confidence = m.Confidence
		if r.Confidence <= 0 || r.Confidence > 1 {
			r.Confidence = importConfidence
		}
		records = append(records, r)
	}
	return records, nil
}

func newMerchantRecord(name string, category model.CanonicalCategory, subcategory string, keywords []string) *model.MerchantRecord {
	key := categorizer.MerchantKey(name)
	if len(keywords) == 0 {
		keywords = categorizer.Keywords(name)
	}
	return &model.MerchantRecord{
		RawKey:         key,
		NormalizedName: key,
		CanonicalName:  strings.TrimSpace(name),
		Category:       category,
		Subcategory:    subcategory,
		Keywords:       keywords,
	}
}

func parseCategory(value string) (model.CanonicalCategory, error) {
	c := model.CanonicalCategory(strings.ToLower(strings.TrimSpace(value)))
	if c.IsValid() {
		return c, nil
	}
	names := make([]string, 0, len(model.AllCategories()))
	for _, known := range model.AllCategories() {
		names = append(names, string(known))
	}
	return "", common.NewUserError(
		fmt.Sprintf("unknown category %q (expected one of: %s)", value, strings.Join(names, ", ")),
		common.ErrInvalidConfig)
}
