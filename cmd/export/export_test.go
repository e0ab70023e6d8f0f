package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ignite/constituent-service/internal/repository/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupWorkspace seeds a SQLite file and writes a config pointing at it and
// at a local export directory.
func setupWorkspace(t *testing.T) (configPath, exportDir string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "constituents.db")
	exportDir = filepath.Join(dir, "exports")

	db, d, err := sqlstore.Open(context.Background(), sqlstore.Options{Driver: "sqlite", DSN: dbPath})
	require.NoError(t, err)
	_, err = sqlstore.EnsureSchema(context.Background(), db, d)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	configPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  dsn: %q\nexport:\n  backend: local\n  local_path: %q\n", dbPath, exportDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath, exportDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateThenLocate(t *testing.T) {
	cfgPath, exportDir := setupWorkspace(t)

	out, err := run(t, "locate", "--config", cfgPath, "--year", "2025", "--month", "04")
	require.NoError(t, err)
	assert.Equal(t, "constituents/2025/04/constituents-2025-04.csv\tmissing\n", out)

	out, err = run(t, "generate", "--config", cfgPath, "--year", "2025", "--month", "04")
	require.NoError(t, err)
	assert.Equal(t, "wrote 3 rows to constituents/2025/04/constituents-2025-04.csv\n", out)
	assert.FileExists(t, filepath.Join(exportDir, "constituents", "2025", "04", "constituents-2025-04.csv"))

	out, err = run(t, "locate", "--config", cfgPath, "--year", "2025", "--month", "04")
	require.NoError(t, err)
	assert.Contains(t, out, "present")
}

func TestGenerateRejectsBadPeriod(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)

	_, err := run(t, "generate", "--config", cfgPath, "--year", "2025", "--month", "13")
	assert.Error(t, err)

	_, err = run(t, "generate", "--config", cfgPath)
	assert.Error(t, err, "year is required")
}
