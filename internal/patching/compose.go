package patching

// MergePatches composes patches into one composite that applies them in order.
// Nested composites are flattened, so composition is associative. Nil patches are
// skipped.
func MergePatches(patches ...Patch) Patch {
	flat := make([]Patch, 0, len(patches))
	for _, p := range patches {
		flat = appendFlat(flat, p)
	}
	return CompositePatch{Patches: flat}
}

func appendFlat(dst []Patch, p Patch) []Patch {
	switch v := p.(type) {
	case nil:
		return dst
	case CompositePatch:
		for _, sub := range v.Patches {
			dst = appendFlat(dst, sub)
		}
		return dst
	case *CompositePatch:
		if v == nil {
			return dst
		}
		return appendFlat(dst, *v)
	default:
		return append(dst, p)
	}
}
