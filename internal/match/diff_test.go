package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(p *Pass, accept bool) []Difference {
	var out []Difference

	for {
		d, ok := p.Next()
		if !ok {
			return out
		}

		if accept && d.HasProposal() {
			p.Accept(d.ClosestMatch)
			d.Resolution = d.ClosestMatch
		}

		out = append(out, d)
	}
}

func TestDiff_ProposesAndClaims(t *testing.T) {
	p := Diff([]string{"name", "dob"}, []string{"full_name", "dob", "email"})

	assert.Equal(t, []string{"full_name", "email"}, p.Additions())
	assert.Equal(t, []string{"name"}, p.Unmatched())

	rows := drain(p, true)
	require.Len(t, rows, 2)

	assert.Equal(t, Difference{Column: "full_name", ClosestMatch: "name", Resolution: "name"}, rows[0])
	assert.Equal(t, "email", rows[1].Column)
	assert.Equal(t, NoMatch, rows[1].ClosestMatch)
	assert.False(t, rows[1].HasProposal())
	assert.Empty(t, p.Unmatched())
}

func TestDiff_SkippedProposalStaysAvailable(t *testing.T) {
	p := Diff([]string{"name"}, []string{"full_name", "first_name"})

	rows := drain(p, false)
	require.Len(t, rows, 2)
	assert.Equal(t, "name", rows[0].ClosestMatch)
	assert.Equal(t, "name", rows[1].ClosestMatch)
	assert.True(t, p.Available("name"))
}

func TestDiff_PoolExhaustion(t *testing.T) {
	oldCols := []string{"a_1", "a_2"}
	newCols := []string{"b_1", "b_2", "b_3", "b_4", "b_5"}

	rows := drain(Diff(oldCols, newCols), true)
	require.Len(t, rows, len(newCols))

	proposed := map[string]bool{}
	for _, r := range rows {
		if !r.HasProposal() {
			continue
		}

		assert.False(t, proposed[r.ClosestMatch], "%s proposed twice", r.ClosestMatch)
		proposed[r.ClosestMatch] = true
	}

	assert.LessOrEqual(t, len(proposed), len(oldCols))
}

func TestDiff_NoAdditions(t *testing.T) {
	p := Diff([]string{"a", "b"}, []string{"b", "a"})

	_, ok := p.Next()
	assert.False(t, ok)
	assert.Empty(t, p.Unmatched())
}

func TestPass_Accept(t *testing.T) {
	p := Diff([]string{"x", "y"}, []string{"z"})

	assert.True(t, p.Accept("x"))
	assert.False(t, p.Accept("x"))
	assert.False(t, p.Accept("nope"))
	assert.Equal(t, []string{"y"}, p.Unmatched())
}

func TestRank_TieKeepsPoolOrder(t *testing.T) {
	list := Rank("ab", []string{"ax", "xb", "ab"})

	require.Len(t, list, 3)
	assert.Equal(t, "ab", list[0].Name)
	assert.Equal(t, []string{"ax", "xb"}, []string{list[1].Name, list[2].Name})
	assert.Len(t, list.Top(2), 2)
	assert.Len(t, list.Top(10), 3)

	best, ok := NewPool([]string{"ax", "ab"}).Best("ab")
	require.True(t, ok)
	assert.Equal(t, "ab", best.Name)

	_, ok = NewPool(nil).Best("ab")
	assert.False(t, ok)
}

func TestPass_Candidates(t *testing.T) {
	p := Diff([]string{"site_postcode", "site_town", "notes"}, []string{"site_postal_code"})

	list := p.Candidates("site_postal_code")
	require.Len(t, list, 3)
	assert.Equal(t, "site_postcode", list[0].Name, fmt.Sprint(list))
}
