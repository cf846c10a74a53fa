// Package archive reads and rewrites Modrinth modpack archives.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tie/mrupdate"
)

// Pack is an opened modpack archive.
type Pack struct {
	Reader   *zip.Reader
	Manifest mrupdate.Manifest

	// Raw is the manifest entry as stored in the archive.
	Raw []byte
}

// Open reads the archive and decodes its manifest.
func Open(r io.ReaderAt, size int64) (*Pack, error) {
	z, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mrupdate.ErrArchiveRead, err)
	}
	f, err := findManifest(z)
	if err != nil {
		return nil, err
	}
	raw, err := readFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", mrupdate.ErrArchiveRead, f.Name, err)
	}
	m, err := DecodeManifest(raw)
	if err != nil {
		return nil, err
	}
	return &Pack{Reader: z, Manifest: m, Raw: raw}, nil
}

// DecodeManifest parses and validates manifest JSON.
func DecodeManifest(b []byte) (mrupdate.Manifest, error) {
	var m mrupdate.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%w: decode %s: %v", mrupdate.ErrArchiveRead, mrupdate.ManifestName, err)
	}
	if _, ok := m.Dependencies[mrupdate.MinecraftKey]; !ok {
		return m, fmt.Errorf("%w: %s has no %q dependency",
			mrupdate.ErrArchiveRead, mrupdate.ManifestName, mrupdate.MinecraftKey)
	}
	return m, nil
}

// EncodeManifest returns indented manifest JSON with trailing newline.
func EncodeManifest(m mrupdate.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Repackage copies every entry of src to w, replacing the manifest with
// manifest. Archives holding more than one manifest entry are rejected.
// The output is incomplete if an error is returned.
func Repackage(w io.Writer, src *zip.Reader, manifest []byte) error {
	z := zip.NewWriter(w)
	replaced := false
	for _, f := range src.File {
		if f.Name == mrupdate.ManifestName {
			if replaced {
				return fmt.Errorf("%w: duplicate %s entry", mrupdate.ErrArchiveRead, f.Name)
			}
			replaced = true
			if err := addBytes(z, f.FileHeader, manifest); err != nil {
				return fmt.Errorf("write %s: %w", f.Name, err)
			}
			continue
		}
		if err := addZipFile(z, f); err != nil {
			return fmt.Errorf("%w: %s: %v", mrupdate.ErrArchiveRead, f.Name, err)
		}
	}
	if !replaced {
		return fmt.Errorf("%w: no %s entry", mrupdate.ErrArchiveRead, mrupdate.ManifestName)
	}
	return z.Close()
}

func findManifest(z *zip.Reader) (*zip.File, error) {
	var found *zip.File
	for _, f := range z.File {
		if f.Name != mrupdate.ManifestName {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: duplicate %s entry", mrupdate.ErrArchiveRead, f.Name)
		}
		found = f
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no %s entry", mrupdate.ErrArchiveRead, mrupdate.ManifestName)
	}
	return found, nil
}

func readFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// header returns a copy of h suitable for zip.Writer.CreateHeader.
// Extra fields are dropped since the writer regenerates them.
func header(h zip.FileHeader) *zip.FileHeader {
	h.Extra = nil
	h.CRC32 = 0
	h.CompressedSize = 0
	h.CompressedSize64 = 0
	h.UncompressedSize = 0
	h.UncompressedSize64 = 0
	return &h
}

func addBytes(z *zip.Writer, h zip.FileHeader, b []byte) error {
	hdr := header(h)
	hdr.Method = zip.Deflate
	w, err := z.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// addZipFile streams f through its checksum-verifying reader.
func addZipFile(z *zip.Writer, f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := z.CreateHeader(header(f.FileHeader))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}
