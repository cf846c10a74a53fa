package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(cacheEnv, dir)
	got, err := cacheDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	t.Setenv(cacheEnv, "")
	got, err = cacheDir()
	if err == nil {
		assert.Equal(t, programName, filepath.Base(got))
	}
}

func TestClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	t.Setenv(cacheEnv, dir)

	c, err := openCaches(false)
	require.NoError(t, err)
	c.Close()
	_, err = os.Stat(filepath.Join(dir, "db"))
	require.NoError(t, err)

	cmd := &CleanCommand{}
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-n"}))
	assert.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), fs))
	_, err = os.Stat(dir)
	require.NoError(t, err)

	cmd = &CleanCommand{}
	assert.Equal(t, subcommands.ExitSuccess, cmd.Execute(context.Background(), flag.NewFlagSet("clean", flag.ContinueOnError)))
	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckCleanDir(t *testing.T) {
	assert.Error(t, checkCleanDir(string(filepath.Separator)))
	if home, err := os.UserHomeDir(); err == nil {
		assert.Error(t, checkCleanDir(home+string(filepath.Separator)))
	}
	assert.NoError(t, checkCleanDir(filepath.Join(t.TempDir(), "cache")))
}
