package canon

// BuiltinsRevision names the predeclared-identifier table compiled into
// this build. Canonicalization must be reproducible across environments,
// so the exclusion set is a static table rather than a reflection over
// the running toolchain. Bump the revision when the language adds
// predeclared identifiers.
const BuiltinsRevision = "go1.24"

// predeclared is the universe scope of the language revision above:
// types, constants, the zero value, and built-in functions. These names
// are never assigned canonical slots.
var predeclared = map[string]bool{
	// Types.
	"any":        true,
	"bool":       true,
	"byte":       true,
	"comparable": true,
	"complex64":  true,
	"complex128": true,
	"error":      true,
	"float32":    true,
	"float64":    true,
	"int":        true,
	"int8":       true,
	"int16":      true,
	"int32":      true,
	"int64":      true,
	"rune":       true,
	"string":     true,
	"uint":       true,
	"uint8":      true,
	"uint16":     true,
	"uint32":     true,
	"uint64":     true,
	"uintptr":    true,

	// Constants and the zero value.
	"true":  true,
	"false": true,
	"iota":  true,
	"nil":   true,

	// Built-in functions.
	"append":  true,
	"cap":     true,
	"clear":   true,
	"close":   true,
	"complex": true,
	"copy":    true,
	"delete":  true,
	"imag":    true,
	"len":     true,
	"make":    true,
	"max":     true,
	"min":     true,
	"new":     true,
	"panic":   true,
	"print":   true,
	"println": true,
	"real":    true,
	"recover": true,
}

// IsBuiltin reports whether name is predeclared in the supported
// language revision.
func IsBuiltin(name string) bool {
	return predeclared[name]
}
