package mrupdate

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/tie/mrupdate/registry"
)

// Channel selects which registry versions count as the latest release.
type Channel string

const (
	// ChannelAny takes the first version in registry order.
	ChannelAny Channel = "any"
	// ChannelRelease takes the first version of type "release".
	ChannelRelease Channel = "release"
)

// ParseChannel parses the channel name. An empty name is ChannelAny.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case "", ChannelAny:
		return ChannelAny, nil
	case ChannelRelease:
		return ChannelRelease, nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// Resolver checks mod files against a registry.
type Resolver struct {
	Registry registry.Registry
	Channel  Channel

	// Concurrency limits in-flight resolutions in ResolveAll.
	// Zero or less means GOMAXPROCS.
	Concurrency int

	Log zerolog.Logger
}

// ResolveAll resolves every file concurrently. Results are in input order.
func (r *Resolver) ResolveAll(ctx context.Context, files []File, t Target) []ResolvedMod {
	n := r.Concurrency
	if n < 0 {
		n = 0
	}
	m := iter.Mapper[File, ResolvedMod]{MaxGoroutines: n}
	return m.Map(files, func(f *File) ResolvedMod {
		return r.Resolve(ctx, *f, t)
	})
}

// Resolve determines the status of a single mod file. Failures are
// reported as StatusError and never returned.
func (r *Resolver) Resolve(ctx context.Context, f File, t Target) ResolvedMod {
	name := path.Base(f.Path)
	m := ResolvedMod{
		Entry:       f,
		FileName:    name,
		DisplayName: DisplayName(name),
	}
	if err := r.resolve(ctx, &m, t); err != nil {
		m.Status = StatusError
		m.Version = ""
		m.Update = nil
		m.Err = err
		r.Log.Warn().Err(err).Str("path", f.Path).Msg("resolve")
		return m
	}
	r.Log.Debug().
		Str("path", f.Path).
		Str("project", m.ProjectID).
		Stringer("status", m.Status).
		Msg("resolve")
	return m
}

func (r *Resolver) resolve(ctx context.Context, m *ResolvedMod, t Target) error {
	sum := m.Entry.SHA1()
	if sum == "" {
		return ErrMissingHash
	}
	hit, err := r.Registry.LookupByHash(ctx, "sha1", sum)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", sum, err)
	}
	m.ProjectID = hit.ProjectID

	q := registry.Query{
		GameVersion: t.Minecraft,
		Loader:      t.Loader,
	}
	vs, err := r.Registry.QueryVersions(ctx, hit.ProjectID, q)
	if err != nil {
		return fmt.Errorf("versions of %s: %w", hit.ProjectID, err)
	}
	v, ok := r.latest(vs)
	if !ok {
		m.Status = StatusIncompatible
		return nil
	}
	vf, ok := v.PrimaryFile()
	if !ok {
		return fmt.Errorf("%w: version %s of %s has no files", ErrMalformedResponse, v.ID, hit.ProjectID)
	}
	m.Version = v.Number
	if strings.EqualFold(vf.Hashes["sha1"], sum) {
		m.Status = StatusCompatible
		return nil
	}

	u, err := updateFile(m.Entry, vf)
	if err != nil {
		return fmt.Errorf("version %s of %s: %w", v.ID, hit.ProjectID, err)
	}
	m.Status = StatusUpdate
	m.Update = &u
	return nil
}

func (r *Resolver) latest(vs []registry.Version) (registry.Version, bool) {
	for _, v := range vs {
		switch r.Channel {
		case ChannelRelease:
			if v.Type != "release" {
				continue
			}
		}
		return v, true
	}
	return registry.Version{}, false
}

// updateFile builds the replacement manifest file. The environment tag is
// set by the pack author and is taken from the original file. The file
// name must be a single path element so the update stays in the mods
// directory.
func updateFile(orig File, vf registry.VersionFile) (File, error) {
	name := vf.Filename
	if name == "" || name == "." || name == ".." || path.Base(name) != name || strings.ContainsRune(name, '\\') {
		return File{}, fmt.Errorf("%w: bad file name %q", ErrMalformedResponse, name)
	}
	hashes := make(map[string]string, len(vf.Hashes))
	for k, v := range vf.Hashes {
		hashes[k] = v
	}
	f := File{
		Path:      ModsDir + name,
		Hashes:    hashes,
		Downloads: []string{vf.URL},
		FileSize:  vf.Size,
	}
	if orig.Env != nil {
		f.Env = append(f.Env, orig.Env...)
	}
	return f, nil
}
