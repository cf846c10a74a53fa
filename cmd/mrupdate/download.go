package main

import (
	"context"
	"flag"

	"github.com/google/renameio/v2"
	"github.com/google/subcommands"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/fetcher"
)

type DownloadCommand struct {
	SumsPath     string
	Verify       bool
	DisableCache bool
}

func (*DownloadCommand) Name() string     { return "download" }
func (*DownloadCommand) Synopsis() string { return "download modpack files to local cache" }
func (*DownloadCommand) Usage() string {
	return `Usage: mrupdate download [-sums sums.hcl] [-verify] [-nocache] pack.mrpack

	Downloads every file listed in the modpack manifest to local cache
	and verifies it against the manifest hashes and size. Useful for
	pre-filling local cache and checking download availability.

	With -sums a checksum file with a "file" block per entry is written.
	With -verify cached content is hashed again instead of trusting the
	recorded checksums, and corrupt copies are evicted.

Flags:
`
}

func (cmd *DownloadCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.SumsPath, "sums", "", "write checksums to `path`")
	f.BoolVar(&cmd.Verify, "verify", false, "re-read and hash cached content")
	f.BoolVar(&cmd.DisableCache, "nocache", false, "disable filesystem cache")
}

func (cmd *DownloadCommand) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s := settingsArg(args)
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	fpath := f.Arg(0)

	p, err := openPack(fpath)
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("open modpack")
		return subcommands.ExitFailure
	}
	defer p.Close()

	c, err := openCaches(cmd.DisableCache)
	if err != nil {
		logger.Error().Err(err).Msg("open cache")
		return subcommands.ExitFailure
	}
	defer c.Close()

	dl := fetcher.Fetcher{
		Files:  c.Files,
		Client: s.httpClient(),
		Log:    logger,
	}

	sumsFile := hclwrite.NewEmptyFile()
	sb := SumsBuilder{
		Body: sumsFile.Body(),
	}

	failed := 0
	for _, file := range p.Manifest.Files {
		sums, err := dl.Sums(ctx, file)
		if err == nil && cmd.Verify {
			err = dl.Verify(ctx, file)
		}
		if err != nil {
			logger.Error().Err(err).Str("path", file.Path).Msg("download")
			failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.Debug().Str("path", file.Path).Msg("cached")
		sb.Add(file, sums)
	}
	if failed > 0 {
		logger.Error().Int("failed", failed).Int("files", len(p.Manifest.Files)).Msg("download")
		return subcommands.ExitFailure
	}

	if cmd.SumsPath != "" {
		outSrc := hclwrite.Format(sumsFile.Bytes())
		if err := renameio.WriteFile(cmd.SumsPath, outSrc, 0644); err != nil {
			logger.Error().Err(err).Str("file", cmd.SumsPath).Msg("write sums")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

type SumsBuilder struct {
	*hclwrite.Body
	Length int
}

func (b *SumsBuilder) Add(f mrupdate.File, sums []string) {
	if b.Length > 0 {
		b.AppendNewline()
	}
	b.Length++

	body := b.AppendNewBlock("file", []string{f.Path}).Body()
	body.SetAttributeValue("size", cty.NumberIntVal(f.FileSize))

	vals := make([]cty.Value, len(sums))
	for i, sum := range sums {
		vals[i] = cty.StringVal(sum)
	}
	if len(vals) == 0 {
		body.SetAttributeValue("sums", cty.ListValEmpty(cty.String))
		return
	}
	body.SetAttributeValue("sums", cty.ListVal(vals))
}
