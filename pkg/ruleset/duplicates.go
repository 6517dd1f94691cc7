package ruleset

import (
	"github.com/mitchellh/hashstructure"
	"github.com/pkg/errors"
)

// Duplicate is a pair of predicates with identical definitions. First comes
// before Second in the document.
type Duplicate struct {
	First, Second string
}

// Duplicates returns the pairs of predicates whose rules and exceptions are
// written identically, ignoring names and rule order. Predicates that
// denote the same header space through different rules are not reported.
func (rs *Ruleset) Duplicates() ([]Duplicate, error) {
	seen := make(map[uint64][]string, len(rs.specs))
	var out []Duplicate
	for _, spec := range rs.specs {
		h, err := hashstructure.Hash(spec, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "hashing predicate %q", spec.Name)
		}
		for _, prev := range seen[h] {
			out = append(out, Duplicate{First: prev, Second: spec.Name})
		}
		seen[h] = append(seen[h], spec.Name)
	}
	return out, nil
}
