package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/config"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/llm"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/matcher"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/storage"
)

// useTestSettings installs settings backed by a temp SQLite file and
// restores the previous value when the test ends.
func useTestSettings(t *testing.T) *config.Settings {
	t.Helper()

	s := &config.Settings{
		Database:    storage.Config{Driver: storage.DriverSQLite, Path: filepath.Join(t.TempDir(), "cardcarry.db")},
		LLM:         llm.Config{Provider: llm.ProviderNone},
		Logging:     config.LoggingSettings{Level: "error", Format: "console"},
		Matching:    config.MatchingSettings{Mode: matcher.ModeStatement, TopN: 3},
		Categorizer: config.CategorizerSettings{LearnThreshold: 0.7, Concurrency: 2},
	}
	require.NoError(t, s.Validate())

	prev := settings
	settings = s
	t.Cleanup(func() { settings = prev })
	return s
}

// execute runs cmd with args and stdin, returning stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeTo(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
