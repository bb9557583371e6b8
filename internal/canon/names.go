package canon

import (
	"fmt"
	"go/ast"
)

// skipSet computes the identifiers inside fn that are not simple value
// names and must never be renamed: selector attributes, member names in
// struct and interface types, and field keys of struct composite
// literals. Keys of explicit map and array literals are ordinary
// expressions and stay renameable.
func skipSet(fn *ast.FuncDecl) map[*ast.Ident]bool {
	skip := make(map[*ast.Ident]bool)
	ast.Inspect(fn, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.SelectorExpr:
			skip[e.Sel] = true
		case *ast.StructType:
			if e.Fields != nil {
				for _, f := range e.Fields.List {
					for _, name := range f.Names {
						skip[name] = true
					}
				}
			}
		case *ast.InterfaceType:
			if e.Methods != nil {
				for _, f := range e.Methods.List {
					for _, name := range f.Names {
						skip[name] = true
					}
				}
			}
		case *ast.CompositeLit:
			switch e.Type.(type) {
			case *ast.MapType, *ast.ArrayType:
				// Keys are expressions.
			default:
				for _, elt := range e.Elts {
					kv, ok := elt.(*ast.KeyValueExpr)
					if !ok {
						continue
					}
					if key, ok := kv.Key.(*ast.Ident); ok {
						skip[key] = true
					}
				}
			}
		}
		return true
	})
	return skip
}

// orderedNames walks fn in source order and returns each renameable
// simple name once, at its first occurrence. Blank, predeclared, and
// reserved (import-bound) names are excluded. The function's own name is
// always first because the declaration's name precedes its type and
// body.
func orderedNames(fn *ast.FuncDecl, skip map[*ast.Ident]bool, reserved map[string]bool) []string {
	var names []string
	seen := make(map[string]bool)
	ast.Inspect(fn, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || skip[id] {
			return true
		}
		name := id.Name
		if name == "_" || seen[name] || reserved[name] || IsBuiltin(name) {
			return true
		}
		seen[name] = true
		names = append(names, name)
		return true
	})
	return names
}

// assignSlots builds the forward rename map: the function's own name
// becomes the call slot, every other name becomes v1, v2, ... in
// first-occurrence order. A generated slot that would collide with a
// reserved import name is skipped; import names participate in the
// hashed template, so the skip is deterministic.
func assignSlots(names []string, funcName string, reserved map[string]bool) map[string]string {
	forward := make(map[string]string, len(names))
	forward[funcName] = CallSlot
	next := 1
	for _, name := range names {
		if name == funcName {
			continue
		}
		var slot string
		for {
			slot = fmt.Sprintf("v%d", next)
			next++
			if !reserved[slot] {
				break
			}
		}
		forward[name] = slot
	}
	return forward
}

// applyRenames rewrites every non-skipped identifier through the given
// map, in one pass so chained renames cannot cascade. Identifiers
// absent from the map are left alone.
func applyRenames(fn *ast.FuncDecl, renames map[string]string, skip map[*ast.Ident]bool) {
	ast.Inspect(fn, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || skip[id] {
			return true
		}
		if to, ok := renames[id.Name]; ok {
			id.Name = to
		}
		return true
	})
}

// invert flips a rename map, failing when the values are not distinct.
func invert(m map[string]string) (map[string]string, bool) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if _, dup := out[v]; dup {
			return nil, false
		}
		out[v] = k
	}
	return out, true
}
