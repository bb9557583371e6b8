// Package resolve loads a function together with its transitive
// dependencies, denormalizes each exactly once, and links the result
// into a runnable program through a per-resolution binding environment.
package resolve

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"fnpool/internal/canon"
	"fnpool/internal/errors"
	"fnpool/internal/hashing"
	"fnpool/internal/logging"
	"fnpool/internal/pool"
)

// Unit is one resolved function: its identity, the localization used,
// and its execution form (pool imports stripped, dependency calls left
// on the canonical receivers).
type Unit struct {
	Hash         string   `json:"hash"`
	Language     string   `json:"language"`
	MappingHash  string   `json:"mappingHash"`
	Name         string   `json:"name"`
	Signature    string   `json:"signature"`
	Source       string   `json:"source"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Resolution is the post-order unit list for one target: dependencies
// before their dependents, the target last, every hash exactly once.
type Resolution struct {
	Target string `json:"target"`
	Units  []Unit `json:"units"`
}

// TargetUnit returns the unit of the resolution target.
func (r *Resolution) TargetUnit() *Unit {
	return &r.Units[len(r.Units)-1]
}

// CallExpression renders a call of the target with the given argument
// expressions.
func (r *Resolution) CallExpression(args []string) string {
	call := canon.PoolSymbol(r.Target) + "." + canon.CallSlot + "("
	for i, arg := range args {
		if i > 0 {
			call += ", "
		}
		call += arg
	}
	return call + ")"
}

// Resolver walks dependency graphs over a store. Graphs may contain
// diamonds and cycles; a visited set guarantees termination and
// at-most-once denormalization per hash.
type Resolver struct {
	store  *pool.Store
	cache  *lru.Cache[string, *pool.Object]
	logger *slog.Logger
}

// New creates a resolver over store.
func New(store *pool.Store, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	cache, err := lru.New[string, *pool.Object](objectCacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{store: store, cache: cache, logger: logger}, nil
}

// frame is one in-progress hash on the explicit resolution stack.
type frame struct {
	hash string
	obj  *pool.Object
	deps []string
	next int
}

// Resolve walks the dependency graph under hash depth-first and returns
// the units in post-order. languages is the preference list used to
// pick each unit's localization; it must not be empty. An explicit
// stack and visited set replace recursion, so arbitrarily deep or
// cyclic graphs cannot overflow or loop.
func (r *Resolver) Resolve(hash string, languages []string) (*Resolution, error) {
	if !hashing.IsHash(hash) {
		return nil, errors.Newf(errors.ValidationError, "malformed hash %q", hash)
	}
	if len(languages) == 0 {
		return nil, errors.Newf(errors.ValidationError, "no language preference given")
	}

	out := &Resolution{Target: hash}
	visited := map[string]bool{hash: true}
	var stack []*frame

	push := func(h string) error {
		obj, err := r.loadObject(h)
		if err != nil {
			return err
		}
		deps, err := canon.Dependencies(obj.NormalizedCode)
		if err != nil {
			return err
		}
		stack = append(stack, &frame{hash: h, obj: obj, deps: deps})
		return nil
	}

	if err := push(hash); err != nil {
		return nil, err
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if err := push(dep); err != nil {
				return nil, err
			}
			continue
		}

		unit, err := r.denormalize(top.hash, top.obj, top.deps, languages)
		if err != nil {
			return nil, err
		}
		out.Units = append(out.Units, *unit)
		stack = stack[:len(stack)-1]
	}

	r.logger.Debug("resolution complete",
		"target", hashing.Short(hash), "units", len(out.Units))
	return out, nil
}

func (r *Resolver) denormalize(hash string, obj *pool.Object, deps, languages []string) (*Unit, error) {
	mapping, language, mappingHash, err := r.pickMapping(hash, languages)
	if err != nil {
		return nil, err
	}

	source, err := canon.DenormalizeForExecution(obj.NormalizedCode, canon.Localization{
		Docstring:    mapping.Docstring,
		NameMapping:  mapping.NameMapping,
		AliasMapping: mapping.AliasMapping,
	})
	if err != nil {
		return nil, err
	}
	signature, err := canon.Signature(obj.NormalizedCode)
	if err != nil {
		return nil, err
	}

	return &Unit{
		Hash:         hash,
		Language:     language,
		MappingHash:  mappingHash,
		Name:         mapping.NameMapping[canon.CallSlot],
		Signature:    signature,
		Source:       source,
		Dependencies: deps,
	}, nil
}

// pickMapping returns the localization of the first preferred language
// that has one. Multiple variants fall back to the lowest mapping hash:
// deterministic, but meaningless to the caller, so the pick is logged
// and interactive callers should pass an explicit mapping hash instead.
func (r *Resolver) pickMapping(hash string, languages []string) (*pool.Mapping, string, string, error) {
	for _, language := range languages {
		refs, err := r.store.ListMappings(hash, language)
		if err != nil {
			return nil, "", "", err
		}
		if len(refs) == 0 {
			continue
		}
		if len(refs) > 1 {
			r.logger.Warn("multiple mapping variants, using the lowest hash",
				"hash", hashing.Short(hash), "language", language,
				"variants", len(refs), "using", hashing.Short(refs[0].Hash))
		}
		mapping, mappingHash, err := r.store.LoadMapping(hash, language, refs[0].Hash)
		if err != nil {
			return nil, "", "", err
		}
		return mapping, language, mappingHash, nil
	}

	available, err := r.store.Languages(hash)
	if err != nil {
		return nil, "", "", err
	}
	return nil, "", "", errors.Newf(errors.NotFound,
		"no mapping for %s in preferred languages %v; available: %v",
		hashing.Short(hash), languages, available).WithDetails(available)
}
