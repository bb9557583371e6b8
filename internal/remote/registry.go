// Package remote moves functions between pools. A pool keeps a TOML
// registry of named filesystem remotes; push and pull copy a function
// together with its transitive dependencies, and bundles carry the same
// closure as a single compressed file.
package remote

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"fnpool/internal/errors"
)

const registryFileName = "remotes.toml"

// Registry is the set of configured remotes, stored at
// <pool-root>/remotes.toml.
type Registry struct {
	UpdatedAt time.Time `toml:"updated_at"`
	Remotes   []Remote  `toml:"remotes"`
}

// Remote is a named entry pointing at another pool's root directory.
type Remote struct {
	// UID is the immutable identifier assigned when the remote is added.
	UID string `toml:"uid"`

	// Name is the mutable human-friendly alias used on the command line.
	Name string `toml:"name"`

	// Path is the filesystem root of the remote pool.
	Path string `toml:"path"`

	// AddedAt is when the remote was registered.
	AddedAt time.Time `toml:"added_at"`
}

// LoadRegistry reads the registry from poolRoot. A pool without a
// remotes.toml has an empty registry.
func LoadRegistry(poolRoot string) (*Registry, error) {
	path := filepath.Join(poolRoot, registryFileName)

	var reg Registry
	if _, err := toml.DecodeFile(path, &reg); err != nil {
		if os.IsNotExist(err) {
			return &Registry{}, nil
		}
		return nil, errors.New(errors.SchemaError, "remotes.toml could not be parsed", err)
	}
	return &reg, nil
}

// Save writes the registry back to poolRoot.
func (r *Registry) Save(poolRoot string) error {
	r.UpdatedAt = time.Now().UTC()

	f, err := os.Create(filepath.Join(poolRoot, registryFileName))
	if err != nil {
		return errors.New(errors.InternalError, "failed to write remotes.toml", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(r); err != nil {
		return errors.New(errors.InternalError, "failed to encode remotes.toml", err)
	}
	return nil
}

// Add registers a remote under a unique name.
func (r *Registry) Add(name, path string) (*Remote, error) {
	if name == "" {
		return nil, errors.Newf(errors.ValidationError, "remote name must not be empty")
	}
	for _, rem := range r.Remotes {
		if rem.Name == name {
			return nil, errors.Newf(errors.ValidationError, "remote %q already exists", name)
		}
		if rem.Path == path {
			return nil, errors.Newf(errors.ValidationError,
				"path %q is already registered (as %q)", path, rem.Name)
		}
	}

	rem := Remote{
		UID:     uuid.New().String(),
		Name:    name,
		Path:    path,
		AddedAt: time.Now().UTC(),
	}
	r.Remotes = append(r.Remotes, rem)
	return &r.Remotes[len(r.Remotes)-1], nil
}

// Remove drops a remote by name.
func (r *Registry) Remove(name string) error {
	for i, rem := range r.Remotes {
		if rem.Name == name {
			r.Remotes = append(r.Remotes[:i], r.Remotes[i+1:]...)
			return nil
		}
	}
	return errors.Newf(errors.NotFound, "remote %q is not configured", name)
}

// Get returns the remote with the given name, or nil.
func (r *Registry) Get(name string) *Remote {
	for i := range r.Remotes {
		if r.Remotes[i].Name == name {
			return &r.Remotes[i]
		}
	}
	return nil
}
