package resolve

import (
	"fnpool/internal/hashing"
	"fnpool/internal/pool"
)

// objectCacheSize bounds the resolver's cache of loaded objects. Deep
// graphs revisit hashes through diamonds; objects are immutable once
// written, so cached loads never go stale.
const objectCacheSize = 256

func (r *Resolver) loadObject(hash string) (*pool.Object, error) {
	if obj, ok := r.cache.Get(hash); ok {
		r.logger.Debug("object cache hit", "hash", hashing.Short(hash))
		return obj, nil
	}
	obj, err := r.store.LoadObject(hash)
	if err != nil {
		return nil, err
	}
	r.cache.Add(hash, obj)
	return obj, nil
}
