// Package schema models a form definition (the tree of field elements an
// app is built from) and the operations the reconciler needs on it.
//
// Key functions:
//   - LoadForm / ParseForm: decode a form definition from JSON
//   - Flatten: ordered, deduplicated leaves of a field tree
//   - Leaves: Flatten without Repeatable entries
//   - CheckDuplicates: the data-name/key uniqueness check run before projection
//   - FindKey: recursive data-name to key lookup
package schema
