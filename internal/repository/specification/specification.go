package specification

import "gorm.io/gorm"

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Predicate is implemented by specifications that can also filter records
// held outside the database. Fields are keyed by column name.
type Predicate interface {
	Matches(fields map[string]interface{}) bool
}

// MatchAll reports whether every predicate spec accepts fields.
// Specs without a Predicate form (ordering, paging) are ignored.
func MatchAll(fields map[string]interface{}, specs ...Specification) bool {
	for _, spec := range specs {
		p, ok := spec.(Predicate)
		if !ok {
			continue
		}
		if !p.Matches(fields) {
			return false
		}
	}
	return true
}
