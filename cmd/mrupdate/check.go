package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/plan"
)

type CheckCommand struct {
	targetFlags

	Format       string
	NameFilter   string
	Status       string
	PlanPath     string
	Incompatible string
	DisableCache bool
}

func (*CheckCommand) Name() string     { return "check" }
func (*CheckCommand) Synopsis() string { return "check mods against a target version" }
func (*CheckCommand) Usage() string {
	return `Usage: mrupdate check [-mc version] [-loader name] [-format table] [-name s] [-status s] [-plan plan.hcl] [-nocache] pack.mrpack

	Looks up every mod of the modpack in the registry and reports whether
	it is compatible with the target Minecraft version and loader, has an
	update, or has no compatible release at all.

	The report can be filtered by name substring and by a comma separated
	list of statuses (Compatible, Update, Incompatible, Error). With -plan
	an editable plan is written that "apply" turns into a new modpack.

Flags:
`
}

func (cmd *CheckCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.Minecraft, "mc", "", "target Minecraft version (default from modpack)")
	f.StringVar(&cmd.Loader, "loader", "", "target loader (default from modpack)")
	f.StringVar(&cmd.LoaderVersion, "loader-version", "", "target loader version recorded in the plan")
	f.StringVar(&cmd.Format, "format", string(formatTable), "report format: table, json or yaml")
	f.StringVar(&cmd.NameFilter, "name", "", "show mods whose name contains `s`")
	f.StringVar(&cmd.Status, "status", "", "show mods with the given `statuses`")
	f.StringVar(&cmd.PlanPath, "plan", "", "write plan to `path`")
	f.StringVar(&cmd.Incompatible, "incompatible", "", "default action for incompatible mods")
	f.BoolVar(&cmd.DisableCache, "nocache", false, "disable lookup cache")
}

func (cmd *CheckCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s := settingsArg(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	fpath := f.Arg(0)

	format, err := parseReportFormat(cmd.Format)
	if err != nil {
		logger.Error().Err(err).Msg("check")
		return subcommands.ExitUsageError
	}
	statuses, err := parseStatuses(cmd.Status)
	if err != nil {
		logger.Error().Err(err).Msg("check")
		return subcommands.ExitUsageError
	}
	sel := mrupdate.Selection{Incompatible: s.Incompatible}
	if cmd.Incompatible != "" {
		a, err := parseIncompatible(cmd.Incompatible)
		if err != nil {
			logger.Error().Err(err).Msg("check")
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
		logger.Error().Err(err).Str("file", fpath).Msg("check")
		return subcommands.ExitUsageError
	}
	if cmd.PlanPath != "" {
		if err := writable(p.Manifest, t); err != nil {
			logger.Error().Err(err).Str("file", fpath).Msg("check")
			return subcommands.ExitUsageError
		}
	}

	c, err := openCaches(cmd.DisableCache)
	if err != nil {
		logger.Error().Err(err).Msg("open cache")
		return subcommands.ExitFailure
	}
	defer c.Close()

	files, _ := mrupdate.SplitFiles(p.Manifest)
	logger.Info().
		Str("minecraft", t.Minecraft).
		Str("loader", t.Loader).
		Int("mods", len(files)).
		Msg("checking")
	mods := s.resolver(s.registry(c.DB)).ResolveAll(ctx, files, t)
	if err := ctx.Err(); err != nil {
		logger.Error().Err(err).Msg("check")
		return subcommands.ExitFailure
	}

	actions, err := sel.Dispositions(mods)
	if err != nil {
		logger.Error().Err(err).Msg("dispositions")
		return subcommands.ExitFailure
	}

	rows := newReport(mods, actions)
	filter := reportFilter{Name: cmd.NameFilter, Statuses: statuses}
	if err := writeReport(os.Stdout, format, filter.Apply(rows)); err != nil {
		logger.Error().Err(err).Msg("write report")
		return subcommands.ExitFailure
	}
	logger.Info().Msg(summary(rows))

	if cmd.PlanPath != "" {
		src := plan.Encode(t, sel, mods)
		if err := renameio.WriteFile(cmd.PlanPath, src, 0644); err != nil {
			logger.Error().Err(err).Str("file", cmd.PlanPath).Msg("write plan")
			return subcommands.ExitFailure
		}
		logger.Info().Str("file", cmd.PlanPath).Msg("plan written")
	}

	return subcommands.ExitSuccess
}

func parseIncompatible(s string) (mrupdate.Action, error) {
	a, err := mrupdate.ParseAction(s)
	if err != nil {
		return a, err
	}
	if !mrupdate.ValidIncompatible(a) {
		return a, fmt.Errorf("%w: %v is not a default for incompatible mods", mrupdate.ErrActionInvariant, a)
	}
	return a, nil
}
