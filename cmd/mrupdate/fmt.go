package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/tie/mrupdate/logging"
	"github.com/tie/mrupdate/plan"
)

type FormatCommand struct {
	DisableCheck bool
	Overwrite    bool
	ContextSize  int
}

func (*FormatCommand) Name() string     { return "fmt" }
func (*FormatCommand) Synopsis() string { return "format plan files" }
func (*FormatCommand) Usage() string {
	return `Usage: mrupdate fmt [-c int] [-w] [-nocheck] [plan paths]

	Formats plans using standard syntax. It can either write files
	in-place or generate unified diff with specified context size.

Flags:
`
}

func (cmd *FormatCommand) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.DisableCheck, "nocheck", false, "disable diagnostics")
	fs.BoolVar(&cmd.Overwrite, "w", false, "write result to (source) file instead of stdout")
	fs.IntVar(&cmd.ContextSize, "c", 3, "output n lines of diff context")
}

func (cmd *FormatCommand) Execute(ctx context.Context, fs *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	parser := hclparse.NewParser()
	diagWr := newDiagWr(parser)
	color := logging.TermInfo(int(os.Stdout.Fd())).Color

	paths := fs.Args()
	if len(paths) <= 0 {
		paths = []string{"plan.hcl"}
	} else {
		sort.Strings(paths)
	}

	seen := make(map[string]bool, len(paths))
	for _, fpath := range paths {
		if seen[fpath] {
			continue
		}
		seen[fpath] = true
		src, err := os.ReadFile(fpath)
		if err != nil {
			logger.Error().Err(err).Str("file", fpath).Msg("read plan")
			return subcommands.ExitFailure
		}

		if !cmd.DisableCheck {
			_, diags := plan.Decode(parser, src, fpath)
			if !writeDiags(diagWr, diags) {
				return subcommands.ExitFailure
			}
		}

		outSrc := hclwrite.Format(src)
		if bytes.Equal(src, outSrc) {
			continue
		}
		if !cmd.Overwrite {
			if err := writeDiff(ctx, os.Stdout, filepath.ToSlash(fpath), src, outSrc, cmd.ContextSize, color); err != nil {
				logger.Error().Err(err).Msg("write diff")
				return subcommands.ExitFailure
			}
			continue
		}
		if err := renameio.WriteFile(fpath, outSrc, 0644); err != nil {
			logger.Error().Err(err).Str("file", fpath).Msg("write file")
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
