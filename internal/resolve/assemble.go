package resolve

import (
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"fnpool/internal/canon"
	"fnpool/internal/errors"
)

// Program is a linked resolution: the merged imports of every unit, one
// binding declaration and one body assignment per unit, and an optional
// call on the target. Declares and Assigns are index-aligned with the
// resolution's unit order.
type Program struct {
	Imports  []canon.Import `json:"imports,omitempty"`
	Declares []string       `json:"declares"`
	Assigns  []string       `json:"assigns"`
	Call     string         `json:"call,omitempty"`
}

// Assemble links a resolution into a program. Each unit binds as a
// one-field struct variable named after its hash, declared before any
// body is assigned, so mutually recursive call sites resolve. Regular
// imports are merged across units; one identifier bound to two
// different paths cannot be linked into a single namespace and fails.
func Assemble(res *Resolution) (*Program, error) {
	prog := &Program{}
	byName := make(map[string]string)

	for _, unit := range res.Units {
		imports, err := canon.Imports(unit.Source)
		if err != nil {
			return nil, err
		}
		for _, im := range imports {
			name := im.EffectiveName()
			if prev, ok := byName[name]; ok {
				if prev != im.Path {
					return nil, errors.Newf(errors.ExecutionError,
						"import name %s refers to both %s and %s across resolved functions",
						name, prev, im.Path)
				}
				continue
			}
			byName[name] = im.Path
			prog.Imports = append(prog.Imports, im)
		}

		literal, err := canon.FuncLiteral(unit.Source)
		if err != nil {
			return nil, err
		}
		symbol := canon.PoolSymbol(unit.Hash)
		prog.Declares = append(prog.Declares,
			fmt.Sprintf("var %s struct{ %s %s }", symbol, canon.CallSlot, unit.Signature))
		prog.Assigns = append(prog.Assigns,
			fmt.Sprintf("%s.%s = %s", symbol, canon.CallSlot, literal))
	}

	sort.Slice(prog.Imports, func(i, j int) bool {
		return prog.Imports[i].Path < prog.Imports[j].Path
	})
	return prog, nil
}

// Render produces the program as one package main file: imports, the
// binding declarations, an init assigning every body, and a main
// holding the call when one is set.
func (p *Program) Render() (string, error) {
	var b strings.Builder
	b.WriteString("package main\n\n")

	if len(p.Imports) > 0 {
		b.WriteString("import (\n")
		for _, im := range p.Imports {
			b.WriteString("\t")
			if im.Name != "" {
				b.WriteString(im.Name + " ")
			}
			b.WriteString(strconv.Quote(im.Path) + "\n")
		}
		b.WriteString(")\n\n")
	}

	for _, decl := range p.Declares {
		b.WriteString(decl + "\n")
	}
	b.WriteString("\nfunc init() {\n")
	for _, assign := range p.Assigns {
		b.WriteString(assign + "\n")
	}
	b.WriteString("}\n\nfunc main() {\n")
	if p.Call != "" {
		b.WriteString(p.Call + "\n")
	}
	b.WriteString("}\n")

	formatted, err := format.Source([]byte(b.String()))
	if err != nil {
		return "", errors.New(errors.InternalError, "formatting assembled program", err)
	}
	return string(formatted), nil
}
