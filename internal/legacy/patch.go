package legacy

import "regexp"

// v0 normalized code referenced dependencies by bare hash: import paths
// read pool/<hash> and call receivers read <hash>.F. A bare hash is not
// a valid identifier when it starts with a digit, so v1 prefixes the
// package symbol with fn_. The rewrite is textual on hash boundaries;
// it never touches the canonical name slots or the surrounding code.
var (
	v0ImportPattern   = regexp.MustCompile(`\bpool/([0-9a-f]{64})\b`)
	v0ReceiverPattern = regexp.MustCompile(`\b([0-9a-f]{64})\.`)
)

// PatchPrefixes rewrites v0 dependency references to the v1 prefixed
// form. Already-prefixed references are left alone, so the patch is
// idempotent.
func PatchPrefixes(code string) string {
	code = v0ImportPattern.ReplaceAllString(code, "pool/fn_$1")
	return v0ReceiverPattern.ReplaceAllString(code, "fn_$1.")
}
