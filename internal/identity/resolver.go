package identity

import (
	"fmt"
	"strings"
)

// UnresolvedTeamError means a raw team name has no canonical team. Callers
// must propagate it; inventing an id here would silently fork a team's
// history across spellings.
type UnresolvedTeamError struct {
	Name string
}

func (e *UnresolvedTeamError) Error() string {
	return fmt.Sprintf("unresolved team name: %q", e.Name)
}

// Resolver maps any raw team name from an input file to a stable canonical
// team id.
type Resolver interface {
	Resolve(name string) (int, error)
}

// AliasResolver resolves names against a prebuilt alias map, falling back to
// common-abbreviation rewriting before giving up. The alias map is the
// source of truth; the rewrite step only papers over spelling drift between
// sources ("Michigan State" vs "Michigan St.").
type AliasResolver struct {
	aliases map[string]int
}

// NewAliasResolver builds a resolver from alias -> team id pairs. Keys are
// folded so lookups ignore case, punctuation, and spacing.
func NewAliasResolver(aliases map[string]int) *AliasResolver {
	folded := make(map[string]int, len(aliases))
	for alias, id := range aliases {
		folded[foldKey(alias)] = id
	}
	return &AliasResolver{aliases: folded}
}

// Resolve returns the canonical team id for a raw name
func (r *AliasResolver) Resolve(name string) (int, error) {
	if id, ok := r.aliases[foldKey(name)]; ok {
		return id, nil
	}
	if id, ok := r.aliases[foldKey(abbreviate(name))]; ok {
		return id, nil
	}
	return 0, &UnresolvedTeamError{Name: name}
}

// Size returns the number of distinct folded aliases
func (r *AliasResolver) Size() int {
	return len(r.aliases)
}

// foldKey normalizes a name for map lookup: lowercase, periods and
// apostrophes dropped, whitespace collapsed.
func foldKey(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, "'", "")
	return strings.Join(strings.Fields(name), " ")
}

// Replacements that rewrite long-form names to the canonical short forms.
// Applied in order so compound names rewrite deterministically.
var abbreviations = []struct {
	long  string
	short string
}{
	{"North Carolina", "N.C."},
	{"South Carolina", "S.C."},
	{" State", " St."},
	{"Saint ", "St. "},
	{"St ", "St. "},
	{"University", "U"},
	{"College", "Col."},
	{"Northern ", "N. "},
	{"Southern ", "S. "},
	{"Eastern ", "E. "},
	{"Western ", "W. "},
	{"Central ", "C. "},
}

// abbreviate converts a long-form team name to canonical format
func abbreviate(name string) string {
	name = strings.TrimSpace(name)
	for _, r := range abbreviations {
		name = strings.ReplaceAll(name, r.long, r.short)
	}
	return strings.TrimSpace(name)
}
