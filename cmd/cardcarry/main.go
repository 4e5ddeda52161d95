package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/cli"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/config"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/metrics"
)

var (
	cfgFile  string
	version  = "dev"
	settings *config.Settings
	rootCmd  = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardcarry",
		Short: "💳 Credit card recommendation engine",
		Long: `cardcarry matches your spending against a card catalog.

It categorizes statement merchants, derives a spending profile, and ranks
cards by how well their benefits fit that profile.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/cardcarry/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	cmd.PersistentFlags().String("db", "", "knowledge store path (sqlite)")
	cmd.PersistentFlags().String("catalog", "", "card catalog YAML (default: built-in sample)")
	cmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")

	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", cmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("catalog.path", cmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("metrics.addr", cmd.PersistentFlags().Lookup("metrics-addr"))

	cmd.AddCommand(categorizeCmd())
	cmd.AddCommand(deriveCmd())
	cmd.AddCommand(recommendCmd())
	cmd.AddCommand(merchantsCmd())
	cmd.AddCommand(cardsCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(llmCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(context.Background())

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
			slog.Debug("Command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CARDCARRY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	s, err := config.Load(nil)
	if err != nil {
		return common.NewUserError("configuration is invalid", err)
	}
	settings = s

	if err := common.SetupLogger(s.Logging.Level, s.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	if s.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cmd.Context(), s.MetricsAddr); err != nil {
				slog.Error("Metrics server failed", "addr", s.MetricsAddr, "error", err)
			}
		}()
		slog.Info("Serving metrics", "addr", s.MetricsAddr)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("cardcarry %s\n", version)
		},
	}
}
