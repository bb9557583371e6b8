package remote

import (
	"log/slog"
	"os"

	"fnpool/internal/canon"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

// TransferResult tallies one push or pull.
type TransferResult struct {
	// Objects is the number of objects written at the destination.
	Objects int `json:"objects"`

	// Mappings is the number of mapping variants carried over.
	Mappings int `json:"mappings"`

	// Skipped is the number of objects the destination already had.
	Skipped int `json:"skipped"`
}

// Push copies a function and its transitive dependencies into the named
// remote.
func Push(local *pool.Store, reg *Registry, name, hash string, logger *slog.Logger) (*TransferResult, error) {
	rem, err := openRemote(reg, name, logger)
	if err != nil {
		return nil, err
	}
	return Transfer(local, rem, hash, logger)
}

// Pull copies a function and its transitive dependencies from the named
// remote into the local pool.
func Pull(local *pool.Store, reg *Registry, name, hash string, logger *slog.Logger) (*TransferResult, error) {
	rem, err := openRemote(reg, name, logger)
	if err != nil {
		return nil, err
	}
	return Transfer(rem, local, hash, logger)
}

// openRemote resolves a registry entry to a store over its path.
func openRemote(reg *Registry, name string, logger *slog.Logger) (*pool.Store, error) {
	rem := reg.Get(name)
	if rem == nil {
		return nil, errors.Newf(errors.NotFound, "remote %q is not configured", name)
	}
	if _, err := os.Stat(rem.Path); err != nil {
		return nil, errors.Newf(errors.NotFound, "remote %q path %s is unreachable: %v", rem.Name, rem.Path, err)
	}
	return pool.NewStore(rem.Path, logger), nil
}

// Transfer copies hash and everything it depends on from src to dst.
// Objects the destination already has are not rewritten, but their
// mapping variants are still merged; mapping writes dedup by content
// hash, so repeating a transfer is harmless.
func Transfer(src, dst *pool.Store, hash string, logger *slog.Logger) (*TransferResult, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	objects, err := collectClosure(src, hash)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{}
	for _, obj := range objects {
		created, err := dst.SaveObject(obj)
		if err != nil {
			return nil, err
		}
		if created {
			result.Objects++
		} else {
			result.Skipped++
		}

		copied, err := copyMappings(src, dst, obj.Hash)
		if err != nil {
			return nil, err
		}
		result.Mappings += copied

		logger.Debug("transferred function",
			"hash", obj.Hash,
			"created", created,
			"mappings", copied)
	}

	logger.Info("transfer complete",
		"target", hash,
		"objects", result.Objects,
		"skipped", result.Skipped,
		"mappings", result.Mappings)
	return result, nil
}

// collectClosure loads hash and its transitive dependencies from the
// store, target first. A dependency missing from the store fails the
// whole collection.
func collectClosure(s *pool.Store, hash string) ([]*pool.Object, error) {
	if !hashing.IsHash(hash) {
		return nil, errors.Newf(errors.ValidationError, "malformed function hash %q", hash)
	}

	visited := map[string]bool{hash: true}
	stack := []string{hash}
	var objects []*pool.Object

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		obj, err := s.LoadObject(h)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)

		deps, err := canon.Dependencies(obj.NormalizedCode)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return objects, nil
}

// copyMappings carries every language's mapping variants for one object
// from src to dst.
func copyMappings(src, dst *pool.Store, hash string) (int, error) {
	langs, err := src.Languages(hash)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, lang := range langs {
		refs, err := src.ListMappings(hash, lang)
		if err != nil {
			return copied, err
		}
		for _, ref := range refs {
			m, _, err := src.LoadMapping(hash, lang, ref.Hash)
			if err != nil {
				return copied, err
			}
			if _, err := dst.SaveMapping(hash, lang, m); err != nil {
				return copied, err
			}
			copied++
		}
	}
	return copied, nil
}
