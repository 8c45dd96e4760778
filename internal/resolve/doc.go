// Package resolve drives column reconciliation: one pass per bucket over the
// columns only the new export has, settling each one from the stored
// mappings, a configured rule or the operator, and persisting every decision
// as it is made.
//
// The order of checks for a column is fixed:
//
//  1. a stored mapping is replayed silently;
//  2. if the bucket already had a mapping file, the column is left alone;
//  3. a matching rule renames it;
//  4. a column without a proposal is left alone;
//  5. otherwise the operator is asked, unless the run is unattended.
//
// Every accepted name leaves the candidate pool so it is never proposed twice.
package resolve
