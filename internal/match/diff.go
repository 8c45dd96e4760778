package match

import (
	"app-reconciler/internal/common"
)

// NoMatch is the closest-match value of a difference when no unclaimed
// column was left to propose.
const NoMatch = "N/A"

// Difference is one row of a reconciliation table: a column present only in
// the new schema, the closest old-only column proposed for it, and the name
// it was finally resolved to (empty until resolved).
type Difference struct {
	Column       string
	ClosestMatch string
	Resolution   string
}

// HasProposal reports whether a closest match was found.
func (d Difference) HasProposal() bool {
	return d.ClosestMatch != "" && d.ClosestMatch != NoMatch
}

// Pass is a single reconciliation pass over the columns of two schemas.
//
// Proposals are computed lazily, against the pool as it stands when the
// addition is reached, and accepted names leave the pool. Proposals for later
// additions therefore depend on the decisions taken for earlier ones; a Pass
// must be driven by exactly one resolver from start to end.
type Pass struct {
	additions []string
	pool      *Pool
	next      int
}

// Diff starts a pass. Additions are the columns of newColumns missing from
// oldColumns, in newColumns order; the pool holds the columns of oldColumns
// missing from newColumns.
func Diff(oldColumns, newColumns []string) *Pass {
	return &Pass{
		additions: common.Without(newColumns, oldColumns),
		pool:      NewPool(common.Without(oldColumns, newColumns)),
	}
}

// Additions returns the new-only columns in pass order.
func (p *Pass) Additions() []string {
	return append([]string(nil), p.additions...)
}

// Next returns the next addition together with its closest unclaimed match,
// or false once every addition has been visited.
func (p *Pass) Next() (Difference, bool) {
	if p.next >= len(p.additions) {
		return Difference{}, false
	}

	column := p.additions[p.next]
	p.next++

	d := Difference{Column: column, ClosestMatch: NoMatch}
	if best, ok := p.pool.Best(column); ok {
		d.ClosestMatch = best.Name
	}

	return d, true
}

// Accept claims name so it is never proposed again. Names outside the pool
// are ignored; it reports whether the name was claimed.
func (p *Pass) Accept(name string) bool {
	return p.pool.Remove(name)
}

// Available reports whether name can still be claimed.
func (p *Pass) Available(name string) bool {
	return p.pool.Contains(name)
}

// Unmatched returns the old-only columns nobody claimed so far.
func (p *Pass) Unmatched() []string {
	return p.pool.Names()
}

// Candidates ranks the unclaimed columns against column.
func (p *Pass) Candidates(column string) CandidateList {
	return Rank(column, p.pool.names)
}
