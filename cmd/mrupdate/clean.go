package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
)

type CleanCommand struct {
	DryRun bool
}

func (*CleanCommand) Name() string     { return "clean" }
func (*CleanCommand) Synopsis() string { return "remove cached files" }
func (*CleanCommand) Usage() string {
	return `Usage: mrupdate clean [-n]

	Removes downloaded files and registry lookups from local cache.
	The cache lives in the user cache directory unless MRUPDATE_CACHE_DIR
	is set.

Flags:
`
}

func (cmd *CleanCommand) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.DryRun, "n", false, "print the cache directory without removing it")
}

func (cmd *CleanCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	path, err := cacheDir()
	if err != nil {
		logger.Error().Err(err).Msg("cache path")
		return subcommands.ExitFailure
	}
	if err := checkCleanDir(path); err != nil {
		logger.Error().Err(err).Msg("clean")
		return subcommands.ExitFailure
	}
	if cmd.DryRun {
		fmt.Println(path)
		return subcommands.ExitSuccess
	}
	if err := os.RemoveAll(path); err != nil {
		logger.Error().Err(err).Str("dir", path).Msg("clean")
		return subcommands.ExitFailure
	}
	logger.Info().Str("dir", path).Msg("cache removed")
	return subcommands.ExitSuccess
}

// checkCleanDir refuses to remove a filesystem root or the home directory,
// which a stray MRUPDATE_CACHE_DIR could point at.
func checkCleanDir(path string) error {
	path = filepath.Clean(path)
	if path == filepath.Dir(path) {
		return fmt.Errorf("refusing to remove root directory %s", path)
	}
	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) == path {
		return fmt.Errorf("refusing to remove home directory %s", path)
	}
	return nil
}
