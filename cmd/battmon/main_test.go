package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/battmon/internal/config"
	"github.com/Dicklesworthstone/battmon/internal/logger"
	"github.com/Dicklesworthstone/battmon/internal/store"
)

func TestRunExitCodes(t *testing.T) {
	assert.Equal(t, 0, run([]string{"-h"}))
	assert.Equal(t, 2, run([]string{"-source", "acpi"}))
	assert.Equal(t, 1, run([]string{"-store", "none", "-log-file", filepath.Join(t.TempDir(), "missing", "x.log")}))
}

func TestRunReportsTickFailure(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "battmon.log")
	code := run([]string{
		"-json",
		"-store", "none",
		"-source", "sysfs",
		"-log-file", logPath,
	})
	if code == 0 {
		t.Skip("host has a readable battery")
	}
	assert.Equal(t, 1, code)

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "tick skipped")
}

func TestLogWriter(t *testing.T) {
	t.Run("tui discards", func(t *testing.T) {
		w, closeFn, err := logWriter(config.Config{})
		require.NoError(t, err)
		defer closeFn()
		assert.Nil(t, w)
	})

	t.Run("json goes to stderr", func(t *testing.T) {
		w, closeFn, err := logWriter(config.Config{JSONStream: true})
		require.NoError(t, err)
		defer closeFn()
		assert.Equal(t, os.Stderr, w)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.log")
		w, closeFn, err := logWriter(config.Config{LogFile: path})
		require.NoError(t, err)
		logger.New("info", "text", w).Info("hello")
		closeFn()

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), "msg=hello")
	})
}

func TestOpenStoreNone(t *testing.T) {
	st, closeFn := openStore(context.Background(), config.Config{Store: "none"}, logger.Discard())
	defer closeFn()
	assert.IsType(t, store.Nop{}, st)
}
