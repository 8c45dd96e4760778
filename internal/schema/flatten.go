package schema

import (
	"app-reconciler/internal/common"
)

// Flatten walks a field tree depth-first and returns its leaves in order.
//
// Section nodes are never emitted; their children are. A Repeatable node is
// emitted as a leaf (it is addressable as a field) and its children follow it,
// so callers that only want scalar leaves must filter Repeatable entries out
// (see Leaves). Entries are deduplicated on key and data name.
func Flatten(fields []Field) []Field {
	var out []Field

	walk(fields, true, &out)

	return dedupe(out)
}

// Leaves is Flatten without the Repeatable entries.
func Leaves(fields []Field) []Field {
	all := Flatten(fields)
	out := make([]Field, 0, len(all))

	for _, f := range all {
		if f.Type != Repeatable {
			out = append(out, f)
		}
	}

	return out
}

// Scope returns the fields that belong to a single record level: Sections are
// inlined and Repeatables are emitted as leaves without descending into them.
// The children of a Repeatable form their own scope, built on demand with
// Scope(repeatable.Elements).
func Scope(fields []Field) []Field {
	var out []Field

	walk(fields, false, &out)

	return dedupe(out)
}

func walk(fields []Field, intoRepeatables bool, out *[]Field) {
	for _, f := range fields {
		switch f.Type {
		case Section:
			walk(f.Elements, intoRepeatables, out)
		case Repeatable:
			*out = append(*out, f)
			if intoRepeatables {
				walk(f.Elements, intoRepeatables, out)
			}
		default:
			*out = append(*out, f)
		}
	}
}

func dedupe(fields []Field) []Field {
	return common.UniqueBy(fields, func(f Field) string {
		return f.Key + "\x00" + f.DataName
	})
}

// FindKey searches a field tree, containers included, for the key of the
// field with the given data name.
func FindKey(fields []Field, dataName string) (string, bool) {
	for _, f := range fields {
		if f.DataName == dataName {
			return f.Key, true
		}

		if f.Type.IsContainer() {
			if key, ok := FindKey(f.Elements, dataName); ok {
				return key, true
			}
		}
	}

	return "", false
}

// DataNames returns the data names of fields, in order.
func DataNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.DataName
	}

	return names
}
