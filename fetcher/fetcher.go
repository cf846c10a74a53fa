// Package fetcher downloads modpack files into a content-addressed cache.
package fetcher

import (
	"bufio"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/sha3"

	"github.com/tie/mrupdate"
)

var (
	ErrSumsMismatch = errors.New("checksum mismatch")
	ErrNoDownloads  = errors.New("no download urls")
)

// Manifest hashes checked after download.
var verifiedHashes = []string{"sha1", "sha512"}

type Fetcher struct {
	Files  billy.Filesystem
	Client *http.Client
	Log    zerolog.Logger
}

func cachePath(fs billy.Basic, f mrupdate.File) (dir, base string, err error) {
	sum := strings.ToLower(f.SHA1())
	if len(sum) < 2 {
		return "", "", fmt.Errorf("%w: %s", mrupdate.ErrMissingHash, f.Path)
	}
	return fs.Join("sha1", sum[:2]), sum, nil
}

// Cache downloads f unless a verified copy is already cached.
func (dl *Fetcher) Cache(ctx context.Context, f mrupdate.File) error {
	dir, base, err := cachePath(dl.Files, f)
	if err != nil {
		return err
	}
	_, err = dl.statData(dir, base)
	if err == nil {
		return dl.verifySums(wantSums(f), dir, base)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return dl.download(ctx, f, dir, base)
}

// Sums returns the cached checksums of f as "algorithm:hex" strings.
func (dl *Fetcher) Sums(ctx context.Context, f mrupdate.File) ([]string, error) {
	if err := dl.Cache(ctx, f); err != nil {
		return nil, err
	}
	dir, base, err := cachePath(dl.Files, f)
	if err != nil {
		return nil, err
	}
	return dl.readSums(dir, base)
}

// Open returns the cached content of f, downloading it first if needed.
func (dl *Fetcher) Open(ctx context.Context, f mrupdate.File) (billy.File, error) {
	if err := dl.Cache(ctx, f); err != nil {
		return nil, err
	}
	dir, base, err := cachePath(dl.Files, f)
	if err != nil {
		return nil, err
	}
	return dl.Files.Open(dl.Files.Join(dir, base+".dat"))
}

// Verify re-reads the cached content of f and checks it against the
// manifest hashes and size. A mismatching copy is evicted from the cache.
func (dl *Fetcher) Verify(ctx context.Context, f mrupdate.File) error {
	bf, err := dl.Open(ctx, f)
	if err != nil {
		return err
	}
	defer dl.close(bf)

	h1, h512 := sha1.New(), sha512.New()
	size, err := io.Copy(io.MultiWriter(h1, h512), bf)
	if err != nil {
		return err
	}
	got := map[string]string{
		"sha1":   fmt.Sprintf("%x", h1.Sum(nil)),
		"sha512": fmt.Sprintf("%x", h512.Sum(nil)),
	}

	dir, base, err := cachePath(dl.Files, f)
	if err != nil {
		return err
	}
	for _, name := range verifiedHashes {
		want, ok := f.Hashes[name]
		if !ok || got[name] == strings.ToLower(want) {
			continue
		}
		dl.evict(dir, base)
		return fmt.Errorf("%w: cached %s: %s is %s, want %s", ErrSumsMismatch, base, name, got[name], want)
	}
	if f.FileSize > 0 && size != f.FileSize {
		dl.evict(dir, base)
		return fmt.Errorf("%w: cached %s: size %d, want %d", ErrSumsMismatch, base, size, f.FileSize)
	}
	return nil
}

func wantSums(f mrupdate.File) []string {
	var sums []string
	for _, name := range verifiedHashes {
		if h, ok := f.Hashes[name]; ok {
			sums = append(sums, name+":"+strings.ToLower(h))
		}
	}
	return sums
}

// download tries each url of f in order.
func (dl *Fetcher) download(ctx context.Context, f mrupdate.File, dir, base string) error {
	if len(f.Downloads) == 0 {
		return fmt.Errorf("%w: %s", ErrNoDownloads, f.Path)
	}
	var err error
	for _, rawurl := range f.Downloads {
		err = dl.downloadFile(ctx, rawurl, f, dir, base)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		dl.Log.Warn().Err(err).Str("url", rawurl).Str("path", f.Path).Msg("download")
	}
	return err
}

func (dl *Fetcher) downloadFile(ctx context.Context, rawurl string, f mrupdate.File, dir, base string) error {
	hashNames := []string{
		"md5",
		"sha1",
		"sha256",
		"sha512",
		"sha3-256",
	}
	hashes := []hash.Hash{
		md5.New(),
		sha1.New(),
		sha256.New(),
		sha512.New(),
		sha3.New256(),
	}
	nhashes := len(hashes)

	var size int64
	flags := os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	err := dl.withFile(dir, base, "part", flags, func(bf billy.File) (err error) {
		defer func() {
			cerr := bf.Close()
			if err == nil {
				err = cerr
			}
		}()
		ww := make([]io.Writer, nhashes+1)
		for i, h := range hashes {
			ww[i] = h
		}
		ww[nhashes] = bf
		size, err = dl.fetchFile(ctx, io.MultiWriter(ww...), rawurl)
		return err
	})
	part := dl.Files.Join(dir, base+".part")
	if err != nil {
		dl.remove(part)
		return err
	}

	sums := make([]string, nhashes)
	got := make(map[string]struct{}, nhashes)
	for i, name := range hashNames {
		sums[i] = fmt.Sprintf("%s:%x", name, hashes[i].Sum(nil))
		got[sums[i]] = struct{}{}
	}
	for _, sum := range wantSums(f) {
		if _, ok := got[sum]; !ok {
			dl.remove(part)
			return fmt.Errorf("%w: %s: want %s", ErrSumsMismatch, rawurl, sum)
		}
	}
	if f.FileSize > 0 && size != f.FileSize {
		dl.remove(part)
		return fmt.Errorf("%w: %s: size %d, want %d", ErrSumsMismatch, rawurl, size, f.FileSize)
	}

	if err := dl.writeSums(dir, base, sums); err != nil {
		return err
	}
	return dl.Files.Rename(part, dl.Files.Join(dir, base+".dat"))
}

func (dl *Fetcher) fetchFile(ctx context.Context, w io.Writer, rawurl string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return 0, err
	}
	resp, err := dl.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", mrupdate.ErrTransport, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			dl.Log.Debug().Err(err).Str("url", rawurl).Msg("close body")
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: GET %s: %s", mrupdate.ErrTransport, rawurl, resp.Status)
	}
	return io.Copy(w, resp.Body)
}

func (dl *Fetcher) readSums(dir, base string) ([]string, error) {
	sums := []string{}
	err := dl.withSums(dir, base, os.O_RDONLY, func(bf billy.File) error {
		defer dl.close(bf)
		s := bufio.NewScanner(bf)
		for s.Scan() {
			if sum := strings.TrimSpace(s.Text()); sum != "" {
				sums = append(sums, sum)
			}
		}
		return s.Err()
	})
	if err != nil {
		return nil, err
	}
	return sums, nil
}

func (dl *Fetcher) verifySums(sums []string, dir, base string) error {
	if len(sums) == 0 {
		return nil
	}
	cached, err := dl.readSums(dir, base)
	if err != nil {
		return err
	}
	sumsMap := make(map[string]struct{}, len(cached))
	for _, sum := range cached {
		sumsMap[sum] = struct{}{}
	}
	for _, sum := range sums {
		if _, ok := sumsMap[sum]; !ok {
			return fmt.Errorf("%w: cached %s: want %s", ErrSumsMismatch, base, sum)
		}
	}
	return nil
}

func (dl *Fetcher) writeSums(dir, base string, sums []string) error {
	flags := os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	return dl.withSums(dir, base, flags, func(bf billy.File) (err error) {
		defer func() {
			cerr := bf.Close()
			if err == nil {
				err = cerr
			}
		}()
		w := bufio.NewWriter(bf)
		for _, sum := range sums {
			if _, err := fmt.Fprintf(w, "%s\r\n", sum); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

func (dl *Fetcher) statData(dir, base string) (os.FileInfo, error) {
	return dl.Files.Stat(dl.Files.Join(dir, base+".dat"))
}

func (dl *Fetcher) withSums(dir, base string, flag int, fn func(billy.File) error) error {
	return dl.withFile(dir, base, "sum", flag, fn)
}

func (dl *Fetcher) withFile(dir, base, ext string, flag int, fn func(billy.File) error) error {
	if err := dl.Files.MkdirAll(dir, 0755); err != nil {
		return err
	}
	fpath := dl.Files.Join(dir, base+"."+ext)
	f, err := dl.Files.OpenFile(fpath, flag, 0644)
	if err != nil {
		return err
	}
	return fn(f)
}

func (dl *Fetcher) evict(dir, base string) {
	dl.remove(dl.Files.Join(dir, base+".dat"))
	dl.remove(dl.Files.Join(dir, base+".sum"))
}

func (dl *Fetcher) remove(fpath string) {
	if err := dl.Files.Remove(fpath); err != nil && !errors.Is(err, os.ErrNotExist) {
		dl.Log.Warn().Err(err).Str("file", fpath).Msg("remove")
	}
}

func (dl *Fetcher) close(f billy.File) {
	if err := f.Close(); err != nil {
		dl.Log.Warn().Err(err).Str("file", f.Name()).Msg("close")
	}
}
