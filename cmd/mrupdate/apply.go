package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/archive"
	"github.com/tie/mrupdate/logging"
)

type ApplyCommand struct {
	PlanPath    string
	OutputPath  string
	ShowDiff    bool
	DryRun      bool
	ContextSize int
}

func (*ApplyCommand) Name() string     { return "apply" }
func (*ApplyCommand) Synopsis() string { return "apply a plan to the modpack" }
func (*ApplyCommand) Usage() string {
	return `Usage: mrupdate apply [-plan plan.hcl] [-o out.mrpack] [-diff] [-n] pack.mrpack

	Applies a plan written by "check" without contacting the registry.
	Each mod gets the action set in its block, or the default action for
	its status. The plan must list exactly the mods of the modpack.

	The output archive holds every entry of the input with the rewritten
	manifest. It is written atomically.

Flags:
`
}

func (cmd *ApplyCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.PlanPath, "plan", "plan.hcl", "plan `path`")
	f.StringVar(&cmd.OutputPath, "o", "", "modpack output path (default <input>-updated.mrpack)")
	f.BoolVar(&cmd.ShowDiff, "diff", false, "print manifest diff")
	f.BoolVar(&cmd.DryRun, "n", false, "do not write the output modpack")
	f.IntVar(&cmd.ContextSize, "c", 3, "output n lines of diff context")
}

func (cmd *ApplyCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	fpath := f.Arg(0)
	out := cmd.OutputPath
	if out == "" {
		out = outputPath(fpath)
	}

	pl, ok := readPlan(cmd.PlanPath)
	if !ok {
		return subcommands.ExitFailure
	}

	p, err := openPack(fpath)
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("open modpack")
		return subcommands.ExitFailure
	}
	defer p.Close()

	m, err := applyPlan(p, pl)
	if err != nil {
		logger.Error().Err(err).Str("plan", cmd.PlanPath).Msg("apply")
		return subcommands.ExitFailure
	}

	if cmd.ShowDiff {
		newSrc, err := archive.EncodeManifest(m)
		if err != nil {
			logger.Error().Err(err).Msg("encode manifest")
			return subcommands.ExitFailure
		}
		color := logging.TermInfo(int(os.Stdout.Fd())).Color
		name := filepath.ToSlash(fpath) + "/" + mrupdate.ManifestName
		if err := writeDiff(ctx, os.Stdout, name, p.Raw, newSrc, cmd.ContextSize, color); err != nil {
			logger.Error().Err(err).Msg("write diff")
			return subcommands.ExitFailure
		}
	}
	if cmd.DryRun {
		return subcommands.ExitSuccess
	}

	if err := writePack(out, p, m); err != nil {
		logger.Error().Err(err).Str("file", out).Msg("write modpack")
		return subcommands.ExitFailure
	}
	logger.Info().Str("file", out).Int("files", len(m.Files)).Msg("modpack written")
	return subcommands.ExitSuccess
}
