package mrupdate

import (
	"encoding/json"
	"strings"
)

const (
	// ManifestName is the manifest entry name in modpack archive.
	ManifestName = "modrinth.index.json"

	// ModsDir is the path prefix of mod files in the manifest.
	ModsDir = "mods/"

	// DisabledSuffix marks a mod file that the launcher skips.
	DisabledSuffix = ".disabled"

	// MinecraftKey is the dependencies key of the game version.
	MinecraftKey = "minecraft"
)

// loaderKeys maps loader names to their dependencies keys.
var loaderKeys = map[string]string{
	"fabric":   "fabric-loader",
	"quilt":    "quilt-loader",
	"forge":    "forge",
	"neoforge": "neoforge",
}

// LoaderKey returns the dependencies key for the loader. Unknown loaders
// follow the "<loader>-loader" convention.
func LoaderKey(loader string) string {
	if k, ok := loaderKeys[loader]; ok {
		return k
	}
	return loader + "-loader"
}

type Manifest struct {
	FormatVersion int    `json:"formatVersion"`
	Game          string `json:"game"`
	VersionID     string `json:"versionId"`
	Name          string `json:"name"`
	Summary       string `json:"summary,omitempty"`

	Files []File `json:"files"`

	// Dependencies maps platform and loader names to versions.
	// It always holds the "minecraft" key.
	Dependencies map[string]string `json:"dependencies"`
}

// Loader returns the loader name and version of the manifest.
// The ok result is false if no known loader key is present.
func (m *Manifest) Loader() (name, version string, ok bool) {
	for _, name := range []string{"fabric", "quilt", "forge", "neoforge"} {
		if v, ok := m.Dependencies[loaderKeys[name]]; ok {
			return name, v, true
		}
	}
	return "", "", false
}

// Target returns the platform and loader the manifest is currently pinned to.
func (m *Manifest) Target() Target {
	loader, version, _ := m.Loader()
	return Target{
		Minecraft:     m.Dependencies[MinecraftKey],
		Loader:        loader,
		LoaderVersion: version,
	}
}

// Clone returns a copy of the manifest that shares no memory with m.
func (m *Manifest) Clone() Manifest {
	c := *m
	if m.Files != nil {
		c.Files = make([]File, len(m.Files))
		for i := range m.Files {
			c.Files[i] = m.Files[i].Clone()
		}
	}
	if m.Dependencies != nil {
		c.Dependencies = make(map[string]string, len(m.Dependencies))
		for k, v := range m.Dependencies {
			c.Dependencies[k] = v
		}
	}
	return c
}

// File is a single pinned file in the manifest.
type File struct {
	// Path is the file name in modpack archive.
	Path string `json:"path"`

	// Hashes maps hash algorithm to hex encoded digest.
	// Valid manifests contain at least "sha1".
	Hashes map[string]string `json:"hashes"`

	// Env is the client/server support tag. It is copied as is.
	Env json.RawMessage `json:"env,omitempty"`

	// Downloads is a list of mirror URLs for the file.
	Downloads []string `json:"downloads"`

	FileSize int64 `json:"fileSize"`
}

// SHA1 returns the sha1 hash of the file or an empty string.
func (f *File) SHA1() string {
	return f.Hashes["sha1"]
}

// IsMod reports whether f is located in the mods directory.
func (f *File) IsMod() bool {
	return strings.HasPrefix(f.Path, ModsDir)
}

// Clone returns a deep copy of f.
func (f *File) Clone() File {
	c := *f
	if f.Hashes != nil {
		c.Hashes = make(map[string]string, len(f.Hashes))
		for k, v := range f.Hashes {
			c.Hashes[k] = v
		}
	}
	if f.Env != nil {
		c.Env = append(json.RawMessage(nil), f.Env...)
	}
	if f.Downloads != nil {
		c.Downloads = append([]string(nil), f.Downloads...)
	}
	return c
}

// Target is the platform/loader pair a modpack is reconciled against.
type Target struct {
	Minecraft string
	Loader    string
	// LoaderVersion is written to the manifest dependencies.
	// An empty value keeps the current one.
	LoaderVersion string
}

// ResolvedMod is the outcome of checking one mod file against the registry.
type ResolvedMod struct {
	// Entry is the source manifest file.
	Entry File

	FileName    string
	DisplayName string

	// ProjectID is the registry project. It is empty if the hash lookup failed.
	ProjectID string

	Status Status

	// Version is the version number of the latest compatible release.
	Version string

	// Update is the replacement file. It is set iff Status is StatusUpdate.
	Update *File

	// Err is the cause of StatusError.
	Err error
}

// SplitFiles separates mod files from other manifest files.
// Both results preserve manifest order.
func SplitFiles(m Manifest) (mods, others []File) {
	for _, f := range m.Files {
		if f.IsMod() {
			mods = append(mods, f)
		} else {
			others = append(others, f)
		}
	}
	return mods, others
}
