// Package canon implements the canonical form of a pool function: the
// deterministic transform from arbitrary single-function source to a
// canonical template plus a reversible localization, and the inverse
// transform that restores the original surface form.
//
// A source unit is zero or more imports followed by exactly one function
// declaration, with or without a package clause. Canonical text is stored
// without the package clause; a synthetic one is prepended for parsing and
// stripped again when rendering.
package canon

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"fnpool/internal/errors"
	"fnpool/internal/hashing"
)

const (
	// PoolNamespace is the import path prefix under which pool
	// dependencies are referenced.
	PoolNamespace = "pool"

	// HashPrefix makes a hex hash a valid identifier (a hash may start
	// with a digit).
	HashPrefix = "fn_"

	// CallSlot is the canonical name of the function inside its pool
	// package; localized calls take the form alias.F(...).
	CallSlot = "F"

	syntheticClause = "package pool\n"
	syntheticLines  = 2 // the clause plus its blank separator line
)

// slotPattern matches the generated slot names v1, v2, ...
var slotPattern = regexp.MustCompile(`^v[0-9]+$`)

// PoolImportPath returns the import path of the pool package holding hash.
func PoolImportPath(hash string) string {
	return PoolNamespace + "/" + HashPrefix + hash
}

// PoolSymbol returns the identifier a pool import binds when no alias is
// given: the prefixed hash, which is also the package's own name.
func PoolSymbol(hash string) string {
	return HashPrefix + hash
}

// ParsePoolImportPath extracts the dependency hash from a pool import
// path, reporting ok=false for paths outside the pool namespace.
func ParsePoolImportPath(path string) (hash string, ok bool) {
	rest, found := strings.CutPrefix(path, PoolNamespace+"/")
	if !found {
		return "", false
	}
	rest, found = strings.CutPrefix(rest, HashPrefix)
	if !found || !hashing.IsHash(rest) {
		return "", false
	}
	return rest, true
}

// Import is one import of a source unit, as written.
type Import struct {
	Name string // explicit alias, "" when none
	Path string
}

// EffectiveName is the identifier the import binds, approximated by the
// path base when no alias is written.
func (im Import) EffectiveName() string {
	if im.Name != "" {
		return im.Name
	}
	if i := strings.LastIndexByte(im.Path, '/'); i >= 0 {
		return im.Path[i+1:]
	}
	return im.Path
}

// Imports lists a unit's imports in declaration order. The unit may be
// surface source, a canonical template, or an execution form.
func Imports(src string) ([]Import, error) {
	unit, err := parseSource("", src)
	if err != nil {
		return nil, err
	}
	out := make([]Import, 0, len(unit.imports))
	for _, im := range unit.imports {
		out = append(out, Import{Name: im.name, Path: im.path})
	}
	return out, nil
}

// importInfo is one import of the parsed unit.
type importInfo struct {
	spec *ast.ImportSpec
	path string // unquoted import path
	name string // explicit alias, "" when none
	hash string // dependency hash, "" for non-pool imports
}

// effectiveName is the identifier the import binds in the file scope.
func (im *importInfo) effectiveName() string {
	if im.name != "" {
		return im.name
	}
	if im.hash != "" {
		return PoolSymbol(im.hash)
	}
	if i := strings.LastIndexByte(im.path, '/'); i >= 0 {
		return im.path[i+1:]
	}
	return im.path
}

// parsedUnit is a structurally validated source unit: its imports and
// its single function declaration.
type parsedUnit struct {
	fset    *token.FileSet
	file    *ast.File
	fn      *ast.FuncDecl
	imports []*importInfo
}

// poolImports returns the pool subset of the unit's imports.
func (u *parsedUnit) poolImports() []*importInfo {
	var out []*importInfo
	for _, im := range u.imports {
		if im.hash != "" {
			out = append(out, im)
		}
	}
	return out
}

// importNames returns every identifier bound by an import.
func (u *parsedUnit) importNames() map[string]bool {
	names := make(map[string]bool, len(u.imports))
	for _, im := range u.imports {
		names[im.effectiveName()] = true
	}
	return names
}

// hasPackageClause scans just far enough to see whether src already
// begins with a package clause.
func hasPackageClause(src string) bool {
	var s scanner.Scanner
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	s.Init(file, []byte(src), nil, 0)
	_, tok, _ := s.Scan()
	return tok == token.PACKAGE
}

// parseSource parses a source unit, prepending a synthetic package
// clause when the input has none, and validates the top-level shape:
// imports plus exactly one plain function declaration.
func parseSource(filename, src string) (*parsedUnit, error) {
	if filename == "" {
		filename = "source.go"
	}

	text := src
	offset := 0
	if !hasPackageClause(src) {
		text = syntheticClause + "\n" + src
		offset = syntheticLines
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, text, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, syntaxError(err, offset)
	}

	unit := &parsedUnit{fset: fset, file: file}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.IMPORT {
				return nil, errors.Newf(errors.StructuralError,
					"%s: only imports may precede the function declaration, found %s", filename, d.Tok)
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				return nil, errors.Newf(errors.StructuralError,
					"%s: method declarations are not allowed, %s must be a plain function", filename, d.Name.Name)
			}
			if unit.fn != nil {
				return nil, errors.Newf(errors.StructuralError,
					"%s: more than one function declaration (%s and %s)", filename, unit.fn.Name.Name, d.Name.Name)
			}
			unit.fn = d
		default:
			return nil, errors.Newf(errors.StructuralError,
				"%s: unsupported top-level declaration", filename)
		}
	}
	if unit.fn == nil {
		return nil, errors.Newf(errors.StructuralError, "%s: no function declaration found", filename)
	}

	if err := unit.collectImports(filename); err != nil {
		return nil, err
	}
	return unit, nil
}

// collectImports records every import and rejects shapes the canonical
// form cannot represent: blank or dot pool imports, duplicate pool
// imports of one hash, and import names that collide with the canonical
// slot namespace.
func (u *parsedUnit) collectImports(filename string) error {
	seen := make(map[string]bool)
	for _, spec := range u.file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return errors.Newf(errors.StructuralError, "%s: malformed import path %s", filename, spec.Path.Value)
		}
		im := &importInfo{spec: spec, path: path}
		if spec.Name != nil {
			im.name = spec.Name.Name
		}
		if hash, ok := ParsePoolImportPath(path); ok {
			im.hash = hash
			switch im.name {
			case "_":
				return errors.Newf(errors.StructuralError,
					"%s: blank import of pool dependency %s", filename, hashing.Short(hash))
			case ".":
				return errors.Newf(errors.StructuralError,
					"%s: dot import of pool dependency %s", filename, hashing.Short(hash))
			}
			if seen[hash] {
				return errors.Newf(errors.StructuralError,
					"%s: pool dependency %s imported more than once", filename, hashing.Short(hash))
			}
			seen[hash] = true
			if im.name == CallSlot || (isPoolSymbol(im.name) && im.name != PoolSymbol(hash)) {
				return errors.Newf(errors.StructuralError,
					"%s: alias %s collides with the canonical name space", filename, im.name)
			}
		} else {
			// Slot names (v1, v2, ...) colliding with an import are
			// handled by skipping the slot; the call slot and the
			// prefixed-hash shape cannot be skipped and are rejected.
			name := im.effectiveName()
			if name == CallSlot || isPoolSymbol(name) {
				return errors.Newf(errors.StructuralError,
					"%s: import name %s collides with the canonical name space", filename, name)
			}
		}
		u.imports = append(u.imports, im)
	}
	return nil
}

// isPoolSymbol reports whether name has the shape of a prefixed hash.
func isPoolSymbol(name string) bool {
	rest, found := strings.CutPrefix(name, HashPrefix)
	return found && hashing.IsHash(rest)
}

// syntaxError converts a parser failure into a SyntaxError whose
// positions refer to the user's own line numbers, compensating for the
// synthetic package clause.
func syntaxError(err error, lineOffset int) error {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		return errors.New(errors.SyntaxError, "source does not parse", err)
	}
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		pos := e.Pos
		if pos.Line > lineOffset {
			pos.Line -= lineOffset
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", pos, e.Msg))
	}
	return errors.New(errors.SyntaxError, strings.Join(msgs, "; "), nil)
}

var (
	posType     = reflect.TypeOf(token.Pos(0))
	commentType = reflect.TypeOf((*ast.CommentGroup)(nil))
)

// strip clears every source position and detaches every comment group
// reachable from node. Canonical rendering must not depend on the
// original formatting, and comments other than the extracted docstring
// are not part of the canonical form.
func strip(node ast.Node) {
	stripValue(reflect.ValueOf(node), make(map[uintptr]bool))
}

func stripValue(v reflect.Value, seen map[uintptr]bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || seen[v.Pointer()] {
			return
		}
		seen[v.Pointer()] = true
		stripValue(v.Elem(), seen)
	case reflect.Interface:
		if !v.IsNil() {
			stripValue(v.Elem(), seen)
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			stripValue(v.Index(i), seen)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			switch {
			case f.Type() == posType:
				if f.CanSet() {
					f.SetInt(int64(token.NoPos))
				}
			case f.Type() == commentType:
				if f.CanSet() {
					f.Set(reflect.Zero(commentType))
				}
			default:
				stripValue(f, seen)
			}
		}
	}
}

// renderImport is one import line of a rendered unit.
type renderImport struct {
	name string // "" renders without an alias
	path string
}

// render produces the text of a unit: a sorted import block, the
// docstring as a doc comment, and the function declaration, formatted by
// go/format and returned without the package clause. The output is a
// gofmt fixed point, so re-canonicalizing canonical text is the
// identity.
func render(imports []renderImport, docstring string, fn *ast.FuncDecl) (string, error) {
	strip(fn)

	var b bytes.Buffer
	b.WriteString(syntheticClause)
	b.WriteString("\n")

	imports = sortImports(imports)
	if len(imports) > 0 {
		b.WriteString("import (\n")
		for _, im := range imports {
			b.WriteString("\t")
			if im.name != "" {
				b.WriteString(im.name)
				b.WriteString(" ")
			}
			b.WriteString(strconv.Quote(im.path))
			b.WriteString("\n")
		}
		b.WriteString(")\n\n")
	}

	if docstring != "" {
		for _, line := range strings.Split(docstring, "\n") {
			if line == "" {
				b.WriteString("//\n")
			} else {
				b.WriteString("// " + line + "\n")
			}
		}
	}

	if err := printer.Fprint(&b, token.NewFileSet(), fn); err != nil {
		return "", errors.New(errors.InternalError, "rendering function declaration", err)
	}
	b.WriteString("\n")

	formatted, err := format.Source(b.Bytes())
	if err != nil {
		return "", errors.New(errors.InternalError, "formatting rendered unit", err)
	}

	text := string(formatted)
	text = strings.TrimPrefix(text, syntheticClause)
	text = strings.TrimPrefix(text, "\n")
	return text, nil
}

// sortImports orders imports by path then name and drops exact
// duplicates, removing import order as a source of hash variance.
func sortImports(imports []renderImport) []renderImport {
	sorted := make([]renderImport, len(imports))
	copy(sorted, imports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].path != sorted[j].path {
			return sorted[i].path < sorted[j].path
		}
		return sorted[i].name < sorted[j].name
	})
	out := sorted[:0]
	for i, im := range sorted {
		if i > 0 && im == sorted[i-1] {
			continue
		}
		out = append(out, im)
	}
	return out
}
