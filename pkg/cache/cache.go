// pkg/cache/cache.go
package cache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
)

// Store is an on-disk key -> mapping store. The pipeline reads a key at
// start and overwrites it at the end of a run.
//
// Single-writer contract: the pipeline is invoked once per uploaded
// file, so concurrent writers to the same key are not guarded here. A
// future multi-writer extension must add its locking behind this
// interface.
type Store interface {
	// Get returns the cached mapping for a key. The second return is
	// false when the key is absent.
	Get(key string) (*model.Mapping, bool, error)

	// Put stores a mapping under a key, replacing any previous value.
	Put(key string, mapping *model.Mapping) error

	// Close releases the underlying resources.
	Close() error
}

// FileKey derives the cache key for a source file from its identity and
// size: "{stem}_{size}_{extension}". Identical files re-use their
// mapping verbatim on subsequent loads.
func FileKey(path string, size int64) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%d_%s", stem, size, ext)
}
