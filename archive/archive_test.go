package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tie/mrupdate"
)

const testManifest = `{
  "formatVersion": 1,
  "game": "minecraft",
  "versionId": "1.0.0",
  "name": "Pack",
  "files": [
    {
      "path": "mods/a.jar",
      "hashes": {"sha1": "H1", "sha512": "H1H1"},
      "env": {"client": "required", "server": "unsupported"},
      "downloads": ["https://cdn.example/a.jar"],
      "fileSize": 10
    },
    {
      "path": "config/a.toml",
      "hashes": {"sha1": "H2"},
      "downloads": ["https://cdn.example/a.toml"],
      "fileSize": 5
    }
  ],
  "dependencies": {"minecraft": "1.20.1", "fabric-loader": "0.15.0"}
}`

type entry struct {
	name   string
	body   string
	method uint16
}

func buildZip(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	z := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := z.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)
		_, err = io.WriteString(w, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, z.Close())
	return buf.Bytes()
}

func testEntries() []entry {
	return []entry{
		{name: "overrides/", method: zip.Store},
		{name: "overrides/config/Options.TXT", body: "fov:70\n", method: zip.Deflate},
		{name: mrupdate.ManifestName, body: testManifest, method: zip.Deflate},
		{name: "overrides/Odd Dir/name.TXT", body: "stored payload", method: zip.Store},
	}
}

func readAll(t *testing.T, z *zip.Reader) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, f := range z.File {
		b, err := readFile(f)
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func TestOpen(t *testing.T) {
	b := buildZip(t, testEntries()...)
	p, err := Open(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	assert.Equal(t, "Pack", p.Manifest.Name)
	require.Len(t, p.Manifest.Files, 2)
	assert.Equal(t, "H1", p.Manifest.Files[0].SHA1())
	assert.JSONEq(t, `{"client":"required","server":"unsupported"}`, string(p.Manifest.Files[0].Env))
	assert.Equal(t, testManifest, string(p.Raw))

	tgt := p.Manifest.Target()
	assert.Equal(t, mrupdate.Target{Minecraft: "1.20.1", Loader: "fabric", LoaderVersion: "0.15.0"}, tgt)
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("garbage")},
		{"no manifest", buildZip(t, entry{name: "a.txt", body: "a"})},
		{"bad json", buildZip(t, entry{name: mrupdate.ManifestName, body: "{"})},
		{"no minecraft", buildZip(t, entry{name: mrupdate.ManifestName, body: `{"files":[],"dependencies":{}}`})},
		{"duplicate manifest", buildZip(t,
			entry{name: mrupdate.ManifestName, body: testManifest, method: zip.Deflate},
			entry{name: mrupdate.ManifestName, body: `{"name":"Other"}`, method: zip.Store},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(bytes.NewReader(tt.data), int64(len(tt.data)))
			assert.True(t, errors.Is(err, mrupdate.ErrArchiveRead), "%v", err)
		})
	}
}

func TestRepackage(t *testing.T) {
	src := buildZip(t, testEntries()...)
	p, err := Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	newManifest := []byte(`{"name":"New"}`)
	var out bytes.Buffer
	require.NoError(t, Repackage(&out, p.Reader, newManifest))

	z, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range z.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"overrides/",
		"overrides/config/Options.TXT",
		mrupdate.ManifestName,
		"overrides/Odd Dir/name.TXT",
	}, names)

	got := readAll(t, z)
	want := readAll(t, p.Reader)
	want[mrupdate.ManifestName] = string(newManifest)
	assert.Equal(t, want, got)
}

func TestRepackageKeepAll(t *testing.T) {
	src := buildZip(t, testEntries()...)
	p, err := Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	mods, others := mrupdate.SplitFiles(p.Manifest)
	var rs []mrupdate.ResolvedMod
	actions := make(map[string]mrupdate.Action)
	for _, f := range mods {
		rs = append(rs, mrupdate.ResolvedMod{Entry: f, Status: mrupdate.StatusCompatible})
		actions[f.Path] = mrupdate.DefaultAction(rs[len(rs)-1], mrupdate.ActionKeep)
	}
	m, err := mrupdate.Rewrite(p.Manifest, rs, actions, others, p.Manifest.Target())
	require.NoError(t, err)
	b, err := EncodeManifest(m)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Repackage(&out, p.Reader, b))

	q, err := Open(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	assert.JSONEq(t, testManifest, string(q.Raw))

	got := readAll(t, q.Reader)
	want := readAll(t, p.Reader)
	delete(got, mrupdate.ManifestName)
	delete(want, mrupdate.ManifestName)
	assert.Equal(t, want, got)
}

func TestRepackageCorruptEntry(t *testing.T) {
	src := buildZip(t, testEntries()...)
	i := bytes.Index(src, []byte("stored payload"))
	require.True(t, i >= 0)
	src[i] ^= 0xff

	p, err := Open(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	var out bytes.Buffer
	err = Repackage(&out, p.Reader, []byte("{}"))
	assert.True(t, errors.Is(err, mrupdate.ErrArchiveRead), "%v", err)
}

func TestRepackageDuplicateManifest(t *testing.T) {
	src := buildZip(t, append(testEntries(),
		entry{name: mrupdate.ManifestName, body: `{"name":"Other"}`, method: zip.Store},
	)...)
	z, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	require.NoError(t, err)

	var out bytes.Buffer
	err = Repackage(&out, z, []byte("{}"))
	assert.True(t, errors.Is(err, mrupdate.ErrArchiveRead), "%v", err)
}

func TestEncodeManifest(t *testing.T) {
	m, err := DecodeManifest([]byte(testManifest))
	require.NoError(t, err)
	b, err := EncodeManifest(m)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(b, []byte("}\n")))
	assert.JSONEq(t, testManifest, string(b))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "summary")
}
