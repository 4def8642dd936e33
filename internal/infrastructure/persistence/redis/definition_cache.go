package redis

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION CACHE
// Read-through cache in front of the definition store. Definitions are
// immutable from the engine's point of view, so a plain TTL is enough;
// singleflight collapses concurrent misses for the same assessment into
// one backing load.
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionCache implements assessment.DefinitionSource with a Redis
// read-through cache over another source.
type DefinitionCache struct {
	cache  *Cache
	source assessment.DefinitionSource
	group  singleflight.Group
}

// NewDefinitionCache creates a new DefinitionCache.
func NewDefinitionCache(cache *Cache, source assessment.DefinitionSource) *DefinitionCache {
	return &DefinitionCache{
		cache:  cache,
		source: source,
	}
}

// GetDefinition returns the definition, loading through the cache.
// Cache infrastructure failures fall back to the backing source: a
// degraded cache must not block scoring.
func (d *DefinitionCache) GetDefinition(ctx context.Context, id assessment.ID) (assessment.Definition, error) {
	key := DefinitionKey(id.String())

	var cached assessment.Definition
	err := d.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheSerialization) {
		return d.source.GetDefinition(ctx, id)
	}

	value, err, _ := d.group.Do(key, func() (interface{}, error) {
		def, err := d.source.GetDefinition(ctx, id)
		if err != nil {
			return assessment.Definition{}, err
		}
		// Best effort: a failed cache write only costs the next caller a
		// backing load.
		_ = d.cache.Set(ctx, key, def, TTLDefinitionCache)
		return def, nil
	})
	if err != nil {
		return assessment.Definition{}, err
	}

	return value.(assessment.Definition), nil
}

// Invalidate drops the cached entry for an assessment. Called when
// content authoring republishes a definition.
func (d *DefinitionCache) Invalidate(ctx context.Context, id assessment.ID) error {
	return d.cache.Delete(ctx, DefinitionKey(id.String()))
}
