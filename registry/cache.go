package registry

import (
	"context"
	"encoding/json"

	"github.com/akrylysov/pogreb"
	"github.com/rs/zerolog"
)

var _ Registry = (*Cache)(nil)

// Cache memoizes hash lookups in a pogreb database. A file hash always
// belongs to the same project, so entries never expire. Version queries
// are passed through.
type Cache struct {
	Registry Registry
	Database *pogreb.DB
	Log      zerolog.Logger
}

func (c *Cache) LookupByHash(ctx context.Context, algorithm, hash string) (Hit, error) {
	key := []byte("hash/" + algorithm + "/" + hash)
	if hit, ok := c.get(key); ok {
		return hit, nil
	}
	hit, err := c.Registry.LookupByHash(ctx, algorithm, hash)
	if err != nil {
		return hit, err
	}
	c.put(key, hit)
	return hit, nil
}

func (c *Cache) QueryVersions(ctx context.Context, projectID string, q Query) ([]Version, error) {
	return c.Registry.QueryVersions(ctx, projectID, q)
}

func (c *Cache) get(key []byte) (Hit, bool) {
	var hit Hit
	val, err := c.Database.Get(key)
	if err != nil {
		c.Log.Warn().Err(err).Bytes("key", key).Msg("cache get")
		return hit, false
	}
	if val == nil {
		return hit, false
	}
	if err := json.Unmarshal(val, &hit); err != nil || hit.ProjectID == "" {
		c.Log.Warn().Err(err).Bytes("key", key).Msg("cache decode")
		return hit, false
	}
	return hit, true
}

func (c *Cache) put(key []byte, hit Hit) {
	val, err := json.Marshal(hit)
	if err != nil {
		return
	}
	if err := c.Database.Put(key, val); err != nil {
		c.Log.Warn().Err(err).Bytes("key", key).Msg("cache put")
	}
}
