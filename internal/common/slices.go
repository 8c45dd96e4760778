package common

// First returns the first element of the slice and true, or the zero value and false if empty.
func First[S ~[]E, E any](s S) (E, bool) {
	if len(s) == 0 {
		var zero E
		return zero, false
	}

	return s[0], true
}

// UniqueBy returns the elements of s whose key has not been seen before,
// preserving the order of first occurrence.
func UniqueBy[S ~[]E, E any, K comparable](s S, key func(E) K) S {
	seen := make(map[K]struct{}, len(s))
	out := make(S, 0, len(s))

	for _, e := range s {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, e)
	}

	return out
}

// Without returns a copy of s with every element contained in drop removed.
func Without[S ~[]E, E comparable](s S, drop S) S {
	skip := make(map[E]struct{}, len(drop))
	for _, e := range drop {
		skip[e] = struct{}{}
	}

	out := make(S, 0, len(s))

	for _, e := range s {
		if _, ok := skip[e]; !ok {
			out = append(out, e)
		}
	}

	return out
}
