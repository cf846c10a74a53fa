package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/akrylysov/pogreb"
	"github.com/akrylysov/pogreb/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRegistry struct {
	lookups  int
	queries  int
	hit      Hit
	err      error
	versions []Version
}

func (r *countingRegistry) LookupByHash(ctx context.Context, algorithm, hash string) (Hit, error) {
	r.lookups++
	return r.hit, r.err
}

func (r *countingRegistry) QueryVersions(ctx context.Context, projectID string, q Query) ([]Version, error) {
	r.queries++
	return r.versions, nil
}

func openMemDB(t *testing.T) *pogreb.DB {
	t.Helper()
	db, err := pogreb.Open(filepath.Join(t.TempDir(), "db"), &pogreb.Options{
		FileSystem: fs.Mem,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCacheLookup(t *testing.T) {
	inner := &countingRegistry{hit: Hit{ProjectID: "P1", VersionID: "V1"}}
	c := &Cache{Registry: inner, Database: openMemDB(t)}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		hit, err := c.LookupByHash(ctx, "sha1", "h1")
		require.NoError(t, err)
		assert.Equal(t, "P1", hit.ProjectID)
	}
	assert.Equal(t, 1, inner.lookups)

	_, err := c.LookupByHash(ctx, "sha1", "h2")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lookups)
}

func TestCacheSkipsFailures(t *testing.T) {
	inner := &countingRegistry{err: ErrNotFound}
	c := &Cache{Registry: inner, Database: openMemDB(t)}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.LookupByHash(ctx, "sha1", "h1")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Equal(t, 2, inner.lookups)
}

func TestCachePassesQueries(t *testing.T) {
	inner := &countingRegistry{versions: []Version{{ID: "V1"}}}
	c := &Cache{Registry: inner, Database: openMemDB(t)}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		vs, err := c.QueryVersions(ctx, "P1", Query{})
		require.NoError(t, err)
		assert.Len(t, vs, 1)
	}
	assert.Equal(t, 2, inner.queries)
}
