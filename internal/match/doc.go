// Package match provides column-name normalization, Levenshtein distance,
// similarity scoring, and the stateful difference pass that pairs columns of
// one schema with the closest unclaimed column of another.
//
// Key functions:
//   - Levenshtein / Ratio: edit distance and its normalized similarity
//   - NormalizeColumn: case/separator folding for column names
//   - Rank: candidates for a column ordered by similarity
//   - Diff: the single-pass matcher whose candidate pool shrinks as matches are accepted
package match
