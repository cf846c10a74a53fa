package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akrylysov/pogreb"
	"github.com/akrylysov/pogreb/fs"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/renameio/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tie/mrupdate"
	"github.com/tie/mrupdate/archive"
	"github.com/tie/mrupdate/logging"
	"github.com/tie/mrupdate/plan"
	"github.com/tie/mrupdate/plan/hclspec"
	"github.com/tie/mrupdate/registry"
)

// cacheEnv overrides the cache location.
const cacheEnv = "MRUPDATE_CACHE_DIR"

// cacheDir returns the cache root: $MRUPDATE_CACHE_DIR if set, else a
// programName directory under the user cache dir.
func cacheDir() (string, error) {
	if dir := os.Getenv(cacheEnv); dir != "" {
		return filepath.Abs(dir)
	}
	c, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w (set %s)", err, cacheEnv)
	}
	return filepath.Join(c, programName), nil
}

func makeCache() (string, error) {
	c, err := cacheDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c, 0700); err != nil {
		return "", err
	}
	return c, nil
}

// newDiagWr returns a writer for HCL diagnostics on stderr sized to the
// terminal.
func newDiagWr(p *hclparse.Parser) hcl.DiagnosticWriter {
	term := logging.TermInfo(int(os.Stderr.Fd()))
	return hcl.NewDiagnosticTextWriter(os.Stderr, p.Files(), uint(term.Width), term.Color)
}

// writeDiags prints diags and reports whether there were no errors.
func writeDiags(diagWr hcl.DiagnosticWriter, diags hcl.Diagnostics) bool {
	if len(diags) == 0 {
		return true
	}
	if err := diagWr.WriteDiagnostics(diags); err != nil {
		logger.Error().Err(err).Msg("write diags")
		return false
	}
	return !diags.HasErrors()
}

// caches holds the download and lookup caches. With nocache both live
// in memory and are dropped on exit.
type caches struct {
	Files billy.Filesystem
	DB    *pogreb.DB
}

func openCaches(nocache bool) (*caches, error) {
	if nocache {
		db, err := pogreb.Open(programName, &pogreb.Options{
			FileSystem: fs.Mem,
		})
		if err != nil {
			return nil, fmt.Errorf("open pogreb: %w", err)
		}
		return &caches{Files: memfs.New(), DB: db}, nil
	}
	cachePath, err := makeCache()
	if err != nil {
		return nil, fmt.Errorf("make cache: %w", err)
	}
	db, err := pogreb.Open(filepath.Join(cachePath, "db"), nil)
	if err != nil {
		return nil, fmt.Errorf("open pogreb: %w", err)
	}
	return &caches{Files: osfs.New(cachePath), DB: db}, nil
}

func (c *caches) Close() {
	if err := c.DB.Close(); err != nil {
		logger.Warn().Err(err).Msg("close pogreb")
	}
}

func (s *settings) httpClient() *http.Client {
	return &http.Client{Timeout: s.Timeout}
}

func (s *settings) registry(db *pogreb.DB) registry.Registry {
	var reg registry.Registry = &registry.Modrinth{
		Client:    s.httpClient(),
		BaseURL:   s.BaseURL,
		UserAgent: s.UserAgent,
		Log:       logger,
	}
	if db != nil {
		reg = &registry.Cache{
			Registry: reg,
			Database: db,
			Log:      logger,
		}
	}
	return reg
}

func (s *settings) resolver(reg registry.Registry) *mrupdate.Resolver {
	return &mrupdate.Resolver{
		Registry:    reg,
		Channel:     s.Channel,
		Concurrency: s.Concurrency,
		Log:         logger,
	}
}

// openedPack is a modpack archive backed by an open file.
type openedPack struct {
	*archive.Pack
	file *os.File
}

func openPack(fpath string) (*openedPack, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := archive.Open(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return &openedPack{Pack: p, file: f}, nil
}

func (p *openedPack) Close() {
	if err := p.file.Close(); err != nil {
		logger.Warn().Err(err).Str("file", p.file.Name()).Msg("close")
	}
}

// writePack atomically writes a copy of p with manifest m to fpath.
func writePack(fpath string, p *openedPack, m mrupdate.Manifest) error {
	manifest, err := archive.EncodeManifest(m)
	if err != nil {
		return err
	}
	pf, err := renameio.NewPendingFile(fpath, renameio.WithPermissions(0644))
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	if err := archive.Repackage(pf, p.Reader, manifest); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

// outputPath returns the default output path for the input archive.
func outputPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "-updated" + ext
}

func readPlan(fpath string) (hclspec.Plan, bool) {
	parser := hclparse.NewParser()
	diagWr := newDiagWr(parser)

	src, err := os.ReadFile(fpath)
	if err != nil {
		logger.Error().Err(err).Str("file", fpath).Msg("read plan")
		return hclspec.Plan{}, false
	}
	p, diags := plan.Decode(parser, src, fpath)
	return p, writeDiags(diagWr, diags)
}

// applyPlan computes the rewritten manifest for the choices in pl.
func applyPlan(p *openedPack, pl hclspec.Plan) (mrupdate.Manifest, error) {
	sel, err := plan.Selection(pl)
	if err != nil {
		return mrupdate.Manifest{}, err
	}
	files, others := mrupdate.SplitFiles(p.Manifest)
	mods, err := plan.Mods(pl, files)
	if err != nil {
		return mrupdate.Manifest{}, err
	}
	actions, err := sel.Dispositions(mods)
	if err != nil {
		return mrupdate.Manifest{}, err
	}
	return mrupdate.Rewrite(p.Manifest, mods, actions, others, plan.Target(pl))
}

type targetFlags struct {
	Minecraft     string
	Loader        string
	LoaderVersion string
}

func (tf *targetFlags) target(m mrupdate.Manifest) (mrupdate.Target, error) {
	t := m.Target()
	if tf.Minecraft != "" {
		t.Minecraft = tf.Minecraft
	}
	if tf.Loader != "" && tf.Loader != t.Loader {
		t.Loader = tf.Loader
		t.LoaderVersion = ""
	}
	if tf.LoaderVersion != "" {
		t.LoaderVersion = tf.LoaderVersion
	}
	if t.Loader == "" {
		return t, fmt.Errorf("modpack has no loader dependency, use -loader")
	}
	return t, nil
}

// writable reports whether t can be written into m. A loader change must
// carry its version.
func writable(m mrupdate.Manifest, t mrupdate.Target) error {
	if cur := m.Target(); t.Loader != cur.Loader && t.LoaderVersion == "" {
		return fmt.Errorf("%w: changing the loader to %q requires -loader-version", mrupdate.ErrActionInvariant, t.Loader)
	}
	return nil
}
