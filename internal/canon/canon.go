package canon

import (
	"sort"
	"strings"

	"fnpool/internal/errors"
)

// Result is the outcome of canonicalizing one source unit.
type Result struct {
	// WithDocstring is the canonical text including the docstring slot;
	// it is what gets stored and displayed.
	WithDocstring string

	// WithoutDocstring is the canonical text with the docstring omitted;
	// it is the identity-hash input and nothing else.
	WithoutDocstring string

	// Docstring is the extracted doc comment text, "" when absent.
	Docstring string

	// NameMapping maps canonical slot names back to the original
	// surface identifiers, the call slot included.
	NameMapping map[string]string

	// AliasMapping maps each dependency hash to the identifier its
	// import bound in the original source.
	AliasMapping map[string]string

	// Dependencies lists the referenced pool hashes in canonical
	// (sorted) order.
	Dependencies []string
}

// Canonicalize reduces a single-function source unit to its canonical
// form: imports sorted, docstring extracted, dependency aliases replaced
// by their canonical package names, and every simple name replaced by a
// positional slot. The filename is used in error positions only.
func Canonicalize(filename, src string) (*Result, error) {
	unit, err := parseSource(filename, src)
	if err != nil {
		return nil, err
	}
	fn := unit.fn

	if fn.Name.Name == "_" {
		return nil, errors.Newf(errors.StructuralError, "%s: the function must have a name", filename)
	}
	importNames := unit.importNames()
	if importNames[fn.Name.Name] {
		return nil, errors.Newf(errors.StructuralError,
			"%s: function name %s collides with an import", filename, fn.Name.Name)
	}

	docstring := ""
	if fn.Doc != nil {
		docstring = strings.TrimSuffix(fn.Doc.Text(), "\n")
	}

	// De-alias dependencies: the canonical text refers to each one by
	// its prefixed hash, which is the name the import binds once the
	// alias is stripped.
	skip := skipSet(fn)
	aliasMapping := make(map[string]string)
	dealias := make(map[string]string)
	var deps []string
	for _, im := range unit.poolImports() {
		alias := im.effectiveName()
		aliasMapping[im.hash] = alias
		deps = append(deps, im.hash)
		if alias != PoolSymbol(im.hash) {
			dealias[alias] = PoolSymbol(im.hash)
		}
	}
	applyRenames(fn, dealias, skip)
	sort.Strings(deps)

	// Reserved names keep their surface form: everything bound by an
	// import, under its canonical (de-aliased) name for pool imports.
	reserved := make(map[string]bool, len(unit.imports))
	for _, im := range unit.imports {
		if im.hash != "" {
			reserved[PoolSymbol(im.hash)] = true
		} else {
			reserved[im.effectiveName()] = true
		}
	}

	names := orderedNames(fn, skip, reserved)
	forward := assignSlots(names, fn.Name.Name, reserved)
	applyRenames(fn, forward, skip)

	nameMapping, ok := invert(forward)
	if !ok {
		return nil, errors.Newf(errors.InternalError, "%s: slot assignment is not a bijection", filename)
	}

	imports := canonicalImports(unit)
	withDoc, err := render(imports, docstring, fn)
	if err != nil {
		return nil, err
	}
	withoutDoc, err := render(imports, "", fn)
	if err != nil {
		return nil, err
	}

	return &Result{
		WithDocstring:    withDoc,
		WithoutDocstring: withoutDoc,
		Docstring:        docstring,
		NameMapping:      nameMapping,
		AliasMapping:     aliasMapping,
		Dependencies:     deps,
	}, nil
}

// canonicalImports renders the unit's imports with pool aliases
// stripped; non-pool aliases are surface content and survive.
func canonicalImports(unit *parsedUnit) []renderImport {
	out := make([]renderImport, 0, len(unit.imports))
	for _, im := range unit.imports {
		if im.hash != "" {
			out = append(out, renderImport{path: im.path})
		} else {
			out = append(out, renderImport{name: im.name, path: im.path})
		}
	}
	return out
}

// Dependencies extracts the referenced pool hashes from canonical text
// without performing a full denormalization.
func Dependencies(canonicalText string) ([]string, error) {
	unit, err := parseCanonical(canonicalText)
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, im := range unit.poolImports() {
		deps = append(deps, im.hash)
	}
	sort.Strings(deps)
	return deps, nil
}
