package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirst(t *testing.T) {
	v, ok := First([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = First([]string(nil))
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestUniqueBy(t *testing.T) {
	type pair struct{ k, v string }

	in := []pair{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	out := UniqueBy(in, func(p pair) string { return p.k })

	assert.Equal(t, []pair{{"a", "1"}, {"b", "2"}}, out)
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"full_name", "email"}, Without([]string{"full_name", "dob", "email"}, []string{"name", "dob"}))
	assert.Empty(t, Without([]string{"a"}, []string{"a"}))
	assert.Empty(t, Without([]string{}, nil))
}
