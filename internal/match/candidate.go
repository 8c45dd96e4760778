package match

import (
	"slices"
	"sort"

	"app-reconciler/internal/common"
)

// Candidate is a column that could be the counterpart of another column.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is a list of candidates ordered by descending score.
type CandidateList []Candidate

// Rank scores every name in pool against column. The result is ordered by
// score, highest first; equal scores keep their pool order so the earliest
// entry wins a tie.
func Rank(column string, pool []string) CandidateList {
	list := make(CandidateList, 0, len(pool))

	for _, name := range pool {
		list = append(list, Candidate{Name: name, Score: Score(column, name)})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})

	return list
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// Pool is the ordered set of columns still available as match proposals.
// It shrinks as proposals are accepted so that no column is handed out twice.
type Pool struct {
	names []string
}

// NewPool copies names into a new pool.
func NewPool(names []string) *Pool {
	return &Pool{names: slices.Clone(names)}
}

// Len returns the number of unclaimed names.
func (p *Pool) Len() int { return len(p.names) }

// Names returns a copy of the unclaimed names in pool order.
func (p *Pool) Names() []string { return slices.Clone(p.names) }

// Contains reports whether name is still unclaimed.
func (p *Pool) Contains(name string) bool {
	return slices.Contains(p.names, name)
}

// Remove claims name. It reports whether the name was in the pool.
func (p *Pool) Remove(name string) bool {
	i := slices.Index(p.names, name)
	if i < 0 {
		return false
	}

	p.names = slices.Delete(p.names, i, i+1)

	return true
}

// Best returns the unclaimed name closest to column.
func (p *Pool) Best(column string) (Candidate, bool) {
	return common.First(Rank(column, p.names))
}
