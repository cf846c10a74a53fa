package plan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/plan/hclspec"
)

func testFiles() []mrupdate.File {
	env := json.RawMessage(`{"client":"required","server":"required"}`)
	return []mrupdate.File{
		{Path: "mods/a-1.0.jar", Hashes: map[string]string{"sha1": "H1"}, Env: env, Downloads: []string{"https://cdn.example/a"}, FileSize: 1},
		{Path: "mods/b-fabric-2.0.jar", Hashes: map[string]string{"sha1": "H2"}, Downloads: []string{"https://cdn.example/b"}, FileSize: 2},
		{Path: "mods/c.jar", Hashes: map[string]string{"sha1": "H3"}, Downloads: []string{"https://cdn.example/c"}, FileSize: 3},
		{Path: "mods/d.jar", Hashes: map[string]string{"sha1": "H4"}, Downloads: []string{"https://cdn.example/d"}, FileSize: 4},
	}
}

func testMods(files []mrupdate.File) []mrupdate.ResolvedMod {
	upd := mrupdate.File{
		Path:      "mods/a-1.1.jar",
		Hashes:    map[string]string{"sha1": "H1b", "sha512": "H1bb"},
		Env:       files[0].Env,
		Downloads: []string{"https://cdn.example/a-1.1.jar"},
		FileSize:  11,
	}
	return []mrupdate.ResolvedMod{
		{Entry: files[0], FileName: "a-1.0.jar", DisplayName: "a", ProjectID: "PA", Status: mrupdate.StatusUpdate, Version: "1.1", Update: &upd},
		{Entry: files[1], FileName: "b-fabric-2.0.jar", DisplayName: "b", ProjectID: "PB", Status: mrupdate.StatusCompatible, Version: "2.0"},
		{Entry: files[2], FileName: "c.jar", DisplayName: "c", ProjectID: "PC", Status: mrupdate.StatusIncompatible},
		{Entry: files[3], FileName: "d.jar", DisplayName: "d", Status: mrupdate.StatusError, Err: errors.New("lookup H4: not found")},
	}
}

func decode(t *testing.T, src []byte) hclspec.Plan {
	t.Helper()
	p, diags := Decode(hclparse.NewParser(), src, "plan.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	return p
}

func TestRoundTrip(t *testing.T) {
	files := testFiles()
	mods := testMods(files)
	tgt := mrupdate.Target{Minecraft: "1.20.1", Loader: "fabric", LoaderVersion: "0.15.11"}
	sel := mrupdate.Selection{
		Incompatible: mrupdate.ActionRemove,
		Overrides:    map[string]mrupdate.Action{"mods/b-fabric-2.0.jar": mrupdate.ActionDisable},
	}

	src := Encode(tgt, sel, mods)
	assert.Contains(t, string(src), `mod "mods/a-1.0.jar" {`)
	assert.Contains(t, string(src), `incompatible   = "remove"`)

	p := decode(t, src)
	assert.Equal(t, tgt, Target(p))

	gotSel, err := Selection(p)
	require.NoError(t, err)
	assert.Equal(t, sel, gotSel)

	got, err := Mods(p, files)
	require.NoError(t, err)
	require.Len(t, got, len(mods))
	for i := range mods {
		assert.Equal(t, mods[i].Entry, got[i].Entry)
		assert.Equal(t, mods[i].Status, got[i].Status)
		assert.Equal(t, mods[i].ProjectID, got[i].ProjectID)
		assert.Equal(t, mods[i].Version, got[i].Version)
		assert.Equal(t, mods[i].FileName, got[i].FileName)
	}
	require.NotNil(t, got[0].Update)
	assert.Equal(t, *mods[0].Update, *got[0].Update)
	require.Error(t, got[3].Err)
	assert.Equal(t, "lookup H4: not found", got[3].Err.Error())
}

func TestOperatorEdits(t *testing.T) {
	files := testFiles()
	tgt := mrupdate.Target{Minecraft: "1.20.1", Loader: "fabric"}
	src := Encode(tgt, mrupdate.Selection{Incompatible: mrupdate.ActionKeep}, testMods(files))

	edited := strings.Replace(string(src), `incompatible = "keep"`, `incompatible = "disable"`, 1)
	edited = strings.Replace(edited, `status  = "Update"`, `status  = "Update"
  action  = "keep"`, 1)
	require.NotEqual(t, string(src), edited)

	p := decode(t, []byte(edited))
	sel, err := Selection(p)
	require.NoError(t, err)
	mods, err := Mods(p, files)
	require.NoError(t, err)
	actions, err := sel.Dispositions(mods)
	require.NoError(t, err)
	assert.Equal(t, map[string]mrupdate.Action{
		"mods/a-1.0.jar":        mrupdate.ActionKeep,
		"mods/b-fabric-2.0.jar": mrupdate.ActionKeep,
		"mods/c.jar":            mrupdate.ActionDisable,
		"mods/d.jar":            mrupdate.ActionDisable,
	}, actions)
}

func TestDefaultIncompatible(t *testing.T) {
	p := decode(t, []byte(`
minecraft = "1.20.1"
loader    = "fabric"
`))
	sel, err := Selection(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultIncompatible, sel.Incompatible)
	assert.Empty(t, sel.Overrides)
}

func TestSelectionErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"unknown action", `
minecraft = "1.20.1"
loader    = "fabric"
mod "mods/a.jar" {
  status = "Compatible"
  action = "delete"
}
`, mrupdate.ErrUnknownAction},
		{"update default", `
minecraft    = "1.20.1"
loader       = "fabric"
incompatible = "update"
`, mrupdate.ErrActionInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Selection(decode(t, []byte(tt.src)))
			assert.True(t, errors.Is(err, tt.err), "%v", err)
		})
	}
}

func TestModsErrors(t *testing.T) {
	files := testFiles()[:1]
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"missing mod", `
minecraft = "1.20.1"
loader    = "fabric"
`, mrupdate.ErrStalePlan},
		{"unknown mod", `
minecraft = "1.20.1"
loader    = "fabric"
mod "mods/a-1.0.jar" {
  status = "Compatible"
}
mod "mods/z.jar" {
  status = "Compatible"
}
`, mrupdate.ErrStalePlan},
		{"bad status", `
minecraft = "1.20.1"
loader    = "fabric"
mod "mods/a-1.0.jar" {
  status = "Fine"
}
`, mrupdate.ErrUnknownStatus},
		{"update without payload", `
minecraft = "1.20.1"
loader    = "fabric"
mod "mods/a-1.0.jar" {
  status = "Update"
}
`, mrupdate.ErrActionInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Mods(decode(t, []byte(tt.src)), files)
			assert.True(t, errors.Is(err, tt.err), "%v", err)
		})
	}
}

func TestDecodeDiagnostics(t *testing.T) {
	_, diags := Decode(hclparse.NewParser(), []byte(`minecraft = `), "bad.hcl")
	assert.True(t, diags.HasErrors())

	_, diags = Decode(hclparse.NewParser(), []byte(`loader = "fabric"`), "missing.hcl")
	assert.True(t, diags.HasErrors())
}
