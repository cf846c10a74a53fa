// Package plan encodes resolved mods to an editable HCL plan and reads
// operator choices back from it.
package plan

import (
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/plan/hclspec"
)

// DefaultIncompatible is used when the plan has no incompatible attribute.
const DefaultIncompatible = mrupdate.ActionDisable

// Encode returns the plan source for mods. Only overridden mods get an
// action attribute.
func Encode(t mrupdate.Target, sel mrupdate.Selection, mods []mrupdate.ResolvedMod) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("minecraft", cty.StringVal(t.Minecraft))
	body.SetAttributeValue("loader", cty.StringVal(t.Loader))
	if t.LoaderVersion != "" {
		body.SetAttributeValue("loader_version", cty.StringVal(t.LoaderVersion))
	}
	body.SetAttributeValue("incompatible", cty.StringVal(sel.Incompatible.String()))

	for _, m := range mods {
		body.AppendNewline()
		b := &modBuilder{body.AppendNewBlock("mod", []string{m.Entry.Path}).Body()}
		b.Add(m, sel.Overrides)
	}
	return hclwrite.Format(f.Bytes())
}

type modBuilder struct {
	*hclwrite.Body
}

func (b *modBuilder) Add(m mrupdate.ResolvedMod, overrides map[string]mrupdate.Action) {
	b.SetAttributeValue("name", cty.StringVal(m.DisplayName))
	b.SetAttributeValue("status", cty.StringVal(m.Status.String()))
	if m.ProjectID != "" {
		b.SetAttributeValue("project", cty.StringVal(m.ProjectID))
	}
	if m.Version != "" {
		b.SetAttributeValue("version", cty.StringVal(m.Version))
	}
	if m.Err != nil {
		b.SetAttributeValue("error", cty.StringVal(m.Err.Error()))
	}
	if a, ok := overrides[m.Entry.Path]; ok {
		b.SetAttributeValue("action", cty.StringVal(a.String()))
	}
	if u := m.Update; u != nil {
		b.AppendNewline()
		ub := b.AppendNewBlock("update", nil).Body()
		ub.SetAttributeValue("path", cty.StringVal(u.Path))
		ub.SetAttributeValue("hashes", hashesVal(u.Hashes))
		ub.SetAttributeValue("downloads", stringsVal(u.Downloads))
		ub.SetAttributeValue("size", cty.NumberIntVal(u.FileSize))
	}
}

func hashesVal(hashes map[string]string) cty.Value {
	vals := make(map[string]cty.Value, len(hashes))
	for k, v := range hashes {
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

func stringsVal(ss []string) cty.Value {
	if len(ss) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(ss))
	for i, s := range ss {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

// Decode parses plan source. The parser keeps the file for diagnostics.
func Decode(parser *hclparse.Parser, src []byte, filename string) (hclspec.Plan, hcl.Diagnostics) {
	var p hclspec.Plan
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return p, diags
	}
	decodeDiags := gohcl.DecodeBody(file.Body, nil, &p)
	diags = append(diags, decodeDiags...)
	return p, diags
}

// Target returns the target platform of the plan.
func Target(p hclspec.Plan) mrupdate.Target {
	return mrupdate.Target{
		Minecraft:     p.Minecraft,
		Loader:        p.Loader,
		LoaderVersion: p.LoaderVersion,
	}
}

// Selection returns the operator choices recorded in the plan.
func Selection(p hclspec.Plan) (mrupdate.Selection, error) {
	sel := mrupdate.Selection{
		Incompatible: DefaultIncompatible,
		Overrides:    make(map[string]mrupdate.Action),
	}
	if p.Incompatible != "" {
		a, err := mrupdate.ParseAction(p.Incompatible)
		if err != nil {
			return sel, fmt.Errorf("incompatible: %w", err)
		}
		if !mrupdate.ValidIncompatible(a) {
			return sel, fmt.Errorf("incompatible: %w: %v", mrupdate.ErrActionInvariant, a)
		}
		sel.Incompatible = a
	}
	for _, m := range p.Mods {
		if m.Action == "" {
			continue
		}
		a, err := mrupdate.ParseAction(m.Action)
		if err != nil {
			return sel, fmt.Errorf("mod %q: %w", m.Path, err)
		}
		sel.Overrides[m.Path] = a
	}
	return sel, nil
}

// Mods rebuilds resolved mods for the mod files of a modpack. Every file
// must have exactly one mod block and vice versa.
func Mods(p hclspec.Plan, files []mrupdate.File) ([]mrupdate.ResolvedMod, error) {
	blocks := make(map[string]hclspec.Mod, len(p.Mods))
	for _, m := range p.Mods {
		if _, ok := blocks[m.Path]; ok {
			return nil, fmt.Errorf("%w: duplicate mod %q", mrupdate.ErrStalePlan, m.Path)
		}
		blocks[m.Path] = m
	}

	mods := make([]mrupdate.ResolvedMod, 0, len(files))
	for _, f := range files {
		b, ok := blocks[f.Path]
		if !ok {
			return nil, fmt.Errorf("%w: no mod %q", mrupdate.ErrStalePlan, f.Path)
		}
		delete(blocks, f.Path)
		m, err := resolvedMod(b, f)
		if err != nil {
			return nil, fmt.Errorf("mod %q: %w", f.Path, err)
		}
		mods = append(mods, m)
	}
	if len(blocks) > 0 {
		extra := make([]string, 0, len(blocks))
		for name := range blocks {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: unknown mods %q", mrupdate.ErrStalePlan, extra)
	}
	return mods, nil
}

func resolvedMod(b hclspec.Mod, f mrupdate.File) (mrupdate.ResolvedMod, error) {
	var m mrupdate.ResolvedMod
	status, err := mrupdate.ParseStatus(b.Status)
	if err != nil {
		return m, err
	}
	if (status == mrupdate.StatusUpdate) != (b.Update != nil) {
		return m, fmt.Errorf("%w: status %v with update block %t",
			mrupdate.ErrActionInvariant, status, b.Update != nil)
	}
	name := path.Base(f.Path)
	m = mrupdate.ResolvedMod{
		Entry:       f,
		FileName:    name,
		DisplayName: mrupdate.DisplayName(name),
		ProjectID:   b.Project,
		Status:      status,
		Version:     b.Version,
	}
	if b.Error != "" {
		m.Err = errors.New(b.Error)
	}
	if u := b.Update; u != nil {
		uf := mrupdate.File{
			Path:      u.Path,
			Hashes:    u.Hashes,
			Downloads: u.Downloads,
			FileSize:  u.Size,
		}
		if f.Env != nil {
			uf.Env = append(uf.Env, f.Env...)
		}
		m.Update = &uf
	}
	return m, nil
}
