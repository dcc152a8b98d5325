package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "moneymindctl version "+Version+"\n", out)
}

func TestMigrate_SQLite(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "moneymind.db"))

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	// Applying twice is a no-op.
	_, err = execute(t, "migrate")
	require.NoError(t, err)
}

func TestMigrate_RejectsArgs(t *testing.T) {
	_, err := execute(t, "migrate", "extra")
	assert.Error(t, err)
}

func TestSeed_Memory(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "seed-command-test-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("AMQP_URL", "")

	out, err := execute(t, "seed",
		"--email", "demo@example.com",
		"--password", "demo-password",
		"--transactions", "5",
		"--goals", "2",
		"--seed", "7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Seeded demo@example.com"), out)
	assert.Contains(t, out, "5 transactions, 2 goals")
	assert.NotContains(t, out, "Password:")
}
