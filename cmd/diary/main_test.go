package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/diary/internal/auth"
)

func TestHashPasswordFromArgument(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashPassword(strings.NewReader(""), &out, []string{"hunter2"}))

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.CheckPassword(hash, "hunter2"))
}

func TestHashPasswordFromStdin(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashPassword(strings.NewReader("hunter2\r\n"), &out, nil))

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.CheckPassword(hash, "hunter2"))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, hashPassword(strings.NewReader("\n"), &out, nil))
	assert.Empty(t, out.String())
}

func TestMigrateCommandCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "diary.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: "+dbPath+"\n"), 0o600))

	assert.Equal(t, 0, run(context.Background(), []string{"migrate", "--config", cfgPath}))
	assert.FileExists(t, dbPath)
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logger:\n  level: loud\n"), 0o600))

	assert.Equal(t, 1, run(context.Background(), []string{"migrate", "--config", cfgPath}))
	assert.Equal(t, 1, run(context.Background(), []string{"bogus"}))
}
