package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *AliasResolver {
	return NewAliasResolver(map[string]int{
		"Michigan St.":   12,
		"Michigan State": 12,
		"Duke":           3,
		"N.C. State":     27,
		"St. John's":     41,
	})
}

func TestResolveExactAlias(t *testing.T) {
	r := testResolver()

	id, err := r.Resolve("Duke")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestResolveIgnoresCaseAndPunctuation(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name string
		want int
	}{
		{"duke", 3},
		{"  Duke  ", 3},
		{"michigan st", 12},
		{"MICHIGAN ST.", 12},
		{"st johns", 41},
		{"NC State", 27},
	}

	for _, tt := range tests {
		id, err := r.Resolve(tt.name)
		require.NoError(t, err, "resolving %q", tt.name)
		assert.Equal(t, tt.want, id, "resolving %q", tt.name)
	}
}

func TestResolveAbbreviationFallback(t *testing.T) {
	r := NewAliasResolver(map[string]int{
		"Michigan St.": 12,
		"N. Illinois":  55,
	})

	// Long forms not present in the alias map resolve via rewriting
	id, err := r.Resolve("Michigan State")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	id, err = r.Resolve("Northern Illinois")
	require.NoError(t, err)
	assert.Equal(t, 55, id)
}

func TestResolveUnknownName(t *testing.T) {
	r := testResolver()

	_, err := r.Resolve("Hoopville Institute")
	require.Error(t, err)

	var unresolved *UnresolvedTeamError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "Hoopville Institute", unresolved.Name)
}

func TestResolverSize(t *testing.T) {
	r := testResolver()

	// "Michigan St." and "Michigan State" remain distinct folded keys
	assert.Equal(t, 5, r.Size())
}
