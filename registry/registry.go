// Package registry queries a mod registry by file hash and by project.
package registry

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = errors.New("malformed response")
)

// Registry is the narrow registry surface used by the resolver.
type Registry interface {
	// LookupByHash returns the project owning the file with given hash.
	LookupByHash(ctx context.Context, algorithm, hash string) (Hit, error)

	// QueryVersions returns project versions compatible with q in registry
	// order. The result may be empty.
	QueryVersions(ctx context.Context, projectID string, q Query) ([]Version, error)
}

// Hit is the result of a hash lookup.
type Hit struct {
	ProjectID string
	VersionID string
}

// Query constrains a version listing.
type Query struct {
	GameVersion string
	Loader      string
}

// Version is a single project release.
type Version struct {
	ID     string `json:"id"`
	Number string `json:"version_number"`
	// Type is "release", "beta" or "alpha".
	Type  string        `json:"version_type"`
	Files []VersionFile `json:"files"`
}

// VersionFile is a file attached to a release.
type VersionFile struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

// PrimaryFile returns the file flagged as primary, or the first file if
// none is. The ok result is false if the version has no files.
func (v *Version) PrimaryFile() (f VersionFile, ok bool) {
	if len(v.Files) == 0 {
		return f, false
	}
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	return v.Files[0], true
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}
