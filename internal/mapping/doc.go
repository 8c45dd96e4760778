// Package mapping persists the decisions of column reconciliation.
//
// # Files
//
// Every reconciliation bucket (the base record or one repeatable) owns a
// directory under the output root:
//
//	{root}/mappings/{bucket}/mappings.json            confirmed renames
//	{root}/differences/{bucket}/differences.csv      Column, Closest Match, Updated
//	{root}/differences/{bucket}/unmatched_columns.csv old columns nobody claimed
//
// mappings.json is a flat object from new column name to resolved name. It is
// rewritten in full after every decision, so an interrupted run loses at most
// the decision in flight and a re-run replays every earlier decision without
// asking again.
//
// # Rules
//
// Deterministic renames are configured as regular expressions and applied
// before a human is asked. The first rule whose pattern matches a column wins.
//
// # Id map
//
// The id map records the id each source record received when it was created
// remotely. It is shared by the uploader, which skips records already
// created, and by the projector, which resolves record links through it.
package mapping
