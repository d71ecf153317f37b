package patch

import "github.com/openprocurement/concord/internal/jsonptr"

// MakePatch computes a Patch such that Apply(a, MakePatch(a, b)) reproduces
// b structurally. It does not attempt to minimize the number of
// operations; the only contract is round-trip faithfulness.
//
// Arrays that changed only by a trailing append are diffed as a single
// "add" of the appended tail at the array's own key, rather than per-index
// adds — this is what lets the merger's concurrent-add concatenation
// (Apply's custom add semantics) recombine two sibling histories that each
// independently appended to the same field.
func MakePatch(a, b any) Patch {
	return diffValue("", a, b)
}

func diffValue(path string, a, b any) Patch {
	if jsonEqual(a, b) {
		return nil
	}

	if ma, ok := a.(map[string]any); ok {
		if mb, ok := b.(map[string]any); ok {
			return diffObject(path, ma, mb)
		}
	}

	if sa, ok := a.([]any); ok {
		if sb, ok := b.([]any); ok {
			if tail, ok := appendedTail(sa, sb); ok && path != "" {
				return Patch{{Op: OpAdd, Path: path, Value: tail}}
			}
			return Patch{{Op: OpReplace, Path: path, Value: b}}
		}
	}

	return Patch{{Op: OpReplace, Path: path, Value: b}}
}

func diffObject(path string, a, b map[string]any) Patch {
	var out Patch

	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, Operation{Op: OpRemove, Path: joinPath(path, k)})
		}
	}

	// Deterministic key order keeps diffs stable for tests and logs.
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sortStrings(keys)

	for _, k := range keys {
		vb := b[k]
		if va, ok := a[k]; ok {
			out = append(out, diffValue(joinPath(path, k), va, vb)...)
			continue
		}
		out = append(out, Operation{Op: OpAdd, Path: joinPath(path, k), Value: vb})
	}

	return out
}

// appendedTail reports whether b is exactly a with zero or more elements
// appended, returning those new elements.
func appendedTail(a, b []any) ([]any, bool) {
	if len(b) < len(a) {
		return nil, false
	}
	for i := range a {
		if !jsonEqual(a[i], b[i]) {
			return nil, false
		}
	}
	return append([]any{}, b[len(a):]...), true
}

func joinPath(base, key string) string {
	return base + "/" + jsonptr.Escape(key)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
