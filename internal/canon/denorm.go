package canon

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"

	"fnpool/internal/errors"
)

// Localization is the language-specific bundle needed to restore a
// canonical template's surface form.
type Localization struct {
	Docstring    string
	NameMapping  map[string]string // canonical slot -> original name
	AliasMapping map[string]string // dependency hash -> import alias
}

// Denormalize restores the surface form of canonical text: the
// localization's docstring, its original identifiers, and its dependency
// aliases. It is the exact inverse of Canonicalize for any text the
// canonicalizer can produce; text or mappings violating the canonical
// invariants are reported as corruption, never silently patched.
func Denormalize(canonicalText string, loc Localization) (string, error) {
	return denormalize(canonicalText, loc, false)
}

// DenormalizeForExecution restores identifiers and docstring but keeps
// dependency references in their canonical fn_<hash> form and drops the
// pool imports. Execution units from different localizations share one
// binding environment, where surface aliases could collide but
// canonical names cannot.
func DenormalizeForExecution(canonicalText string, loc Localization) (string, error) {
	return denormalize(canonicalText, loc, true)
}

func denormalize(canonicalText string, loc Localization, forExecution bool) (string, error) {
	unit, err := parseCanonical(canonicalText)
	if err != nil {
		return "", err
	}
	fn := unit.fn

	reverse, err := checkLocalization(unit, loc)
	if err != nil {
		return "", err
	}

	skip := skipSet(fn)
	applyRenames(fn, reverse, skip)

	var imports []renderImport
	if forExecution {
		for _, im := range unit.imports {
			if im.hash == "" {
				imports = append(imports, renderImport{name: im.name, path: im.path})
			}
		}
	} else {
		realias := make(map[string]string)
		for _, im := range unit.poolImports() {
			alias := loc.AliasMapping[im.hash]
			if alias != PoolSymbol(im.hash) {
				realias[PoolSymbol(im.hash)] = alias
			}
		}
		applyRenames(fn, realias, skip)
		imports = surfaceImports(unit, loc.AliasMapping)
	}

	return render(imports, loc.Docstring, fn)
}

// parseCanonical parses stored canonical text. A stored template that no
// longer parses or has lost its shape is corruption, distinct from the
// syntax errors user input can produce.
func parseCanonical(canonicalText string) (*parsedUnit, error) {
	unit, err := parseSource("canonical.go", canonicalText)
	if err != nil {
		return nil, errors.New(errors.SchemaError, "stored canonical text is invalid", err)
	}
	return unit, nil
}

// checkLocalization verifies a localization against the template it is
// about to restore and returns the slot-to-original rename map. Checks
// enumerate every violation: a bijective name mapping whose slots are
// exactly the template's renameable names, identifier-safe originals,
// and one alias per dependency.
func checkLocalization(unit *parsedUnit, loc Localization) (map[string]string, error) {
	problems := errors.NewList(errors.SchemaError)

	seen := make(map[string]bool, len(loc.NameMapping))
	for slot, original := range loc.NameMapping {
		if slot != CallSlot && !slotPattern.MatchString(slot) {
			problems.Addf("name mapping key %q is not a canonical slot", slot)
		}
		if !token.IsIdentifier(original) {
			problems.Addf("name mapping value %q for slot %s is not an identifier", original, slot)
		}
		if seen[original] {
			problems.Addf("name mapping is not a bijection: %q appears twice", original)
		}
		seen[original] = true
	}

	used := usedSlots(unit)
	for slot := range used {
		if _, ok := loc.NameMapping[slot]; !ok {
			problems.Addf("template slot %s has no name mapping entry", slot)
		}
	}
	for slot := range loc.NameMapping {
		if !used[slot] {
			problems.Addf("name mapping covers slot %s which the template does not use", slot)
		}
	}

	for _, im := range unit.poolImports() {
		alias, ok := loc.AliasMapping[im.hash]
		if !ok {
			problems.Addf("dependency %s has no alias mapping entry", im.hash)
			continue
		}
		if alias == "_" || !token.IsIdentifier(alias) {
			problems.Addf("alias %q for dependency %s is not an identifier", alias, im.hash)
		}
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return loc.NameMapping, nil
}

// usedSlots collects the slot names the template actually references.
func usedSlots(unit *parsedUnit) map[string]bool {
	skip := skipSet(unit.fn)
	importNames := unit.importNames()
	used := make(map[string]bool)
	ast.Inspect(unit.fn, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || skip[id] {
			return true
		}
		name := id.Name
		if name == "_" || importNames[name] || IsBuiltin(name) {
			return true
		}
		used[name] = true
		return true
	})
	return used
}

// surfaceImports renders imports with each pool dependency's alias
// restored; the alias is omitted when it equals the name the import
// binds anyway.
func surfaceImports(unit *parsedUnit, aliases map[string]string) []renderImport {
	out := make([]renderImport, 0, len(unit.imports))
	for _, im := range unit.imports {
		if im.hash == "" {
			out = append(out, renderImport{name: im.name, path: im.path})
			continue
		}
		alias := aliases[im.hash]
		if alias == PoolSymbol(im.hash) {
			alias = ""
		}
		out = append(out, renderImport{name: alias, path: im.path})
	}
	return out
}

// Signature returns the type of the unit's function, rendered as a func
// type expression.
func Signature(src string) (string, error) {
	unit, err := parseSource("unit.go", src)
	if err != nil {
		return "", err
	}
	strip(unit.fn.Type)
	var b bytes.Buffer
	if err := printer.Fprint(&b, token.NewFileSet(), unit.fn.Type); err != nil {
		return "", errors.New(errors.InternalError, "rendering signature", err)
	}
	return b.String(), nil
}

// FuncLiteral returns the unit's function as an anonymous function
// literal, for splicing into an assignment.
func FuncLiteral(src string) (string, error) {
	unit, err := parseSource("unit.go", src)
	if err != nil {
		return "", err
	}
	lit := &ast.FuncLit{Type: unit.fn.Type, Body: unit.fn.Body}
	strip(lit)
	var b bytes.Buffer
	if err := printer.Fprint(&b, token.NewFileSet(), lit); err != nil {
		return "", errors.New(errors.InternalError, "rendering function literal", err)
	}
	return b.String(), nil
}
