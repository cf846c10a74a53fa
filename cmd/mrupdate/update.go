package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/tie/mrupdate"
)

type UpdateCommand struct {
	targetFlags

	Incompatible string
	OutputPath   string
	DisableCache bool
}

func (*UpdateCommand) Name() string     { return "update" }
func (*UpdateCommand) Synopsis() string { return "update the modpack to a target version" }
func (*UpdateCommand) Usage() string {
	return `Usage: mrupdate update [-mc version] [-loader name] [-loader-version v] [-incompatible disable] [-o out.mrpack] [-nocache] pack.mrpack

	Checks every mod and writes a new modpack in one step. Updates are
	applied, compatible mods are kept and the rest get the -incompatible
	action (keep, disable or remove). Use "check -plan" and "apply" to
	choose actions per mod.

Flags:
`
}

func (cmd *UpdateCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.Minecraft, "mc", "", "target Minecraft version (default from modpack)")
	f.StringVar(&cmd.Loader, "loader", "", "target loader (default from modpack)")
	f.StringVar(&cmd.LoaderVersion, "loader-version", "", "target loader version (default keeps current)")
	f.StringVar(&cmd.Incompatible, "incompatible", "", "action for incompatible mods")
	f.StringVar(&cmd.OutputPath, "o", "", "modpack output path (default <input>-updated.mrpack)")
	f.BoolVar(&cmd.DisableCache, "nocache", false, "disable lookup cache")
}

func (cmd *UpdateCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s := settingsArg(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	fpath := f.Arg(0)
	out := cmd.OutputPath
	if out == "" {
		out = outputPath(fpath)
	}

	sel := mrupdate.Selection{Incompatible: s.Incompatible}
	if cmd.Incompatible != "" {
		a, err := parseIncompatible(cmd.Incompatible)
		if err != nil {
			logger.Error().Err(err).Msg("update")
			return subcommands.ExitUsageError
		}
		sel.Incompatible = a
	}

	p, err := openPack(fpath)
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("open modpack")
		return subcommands.ExitFailure
	}
	defer p.Close()

	t, err := cmd.target(p.Manifest)
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("update")
		return subcommands.ExitUsageError
	}
	if err := writable(p.Manifest, t); err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("update")
		return subcommands.ExitUsageError
	}

	c, err := openCaches(cmd.DisableCache)
	if err != nil {
		logger.Error().Err(err).Msg("open cache")
		return subcommands.ExitFailure
	}
	defer c.Close()

	files, others := mrupdate.SplitFiles(p.Manifest)
	mods := s.resolver(s.registry(c.DB)).ResolveAll(ctx, files, t)
	if err := ctx.Err(); err != nil {
		logger.Error().Err(err).Msg("update")
		return subcommands.ExitFailure
	}
	actions, err := sel.Dispositions(mods)
	if err != nil {
		logger.Error().Err(err).Msg("dispositions")
		return subcommands.ExitFailure
	}
	for _, m := range mods {
		logger.Info().
			Str("mod", m.DisplayName).
			Stringer("status", m.Status).
			Stringer("action", actions[m.Entry.Path]).
			Msg("")
	}

	m, err := mrupdate.Rewrite(p.Manifest, mods, actions, others, t)
	if err != nil {
		logger.Error().Err(err).Msg("rewrite manifest")
		return subcommands.ExitFailure
	}
	if err := writePack(out, p, m); err != nil {
		logger.Error().Err(err).Str("file", out).Msg("write modpack")
		return subcommands.ExitFailure
	}
	logger.Info().Str("file", out).Msg(summary(newReport(mods, actions)))
	return subcommands.ExitSuccess
}
