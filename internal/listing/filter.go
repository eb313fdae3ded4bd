package listing

import "strings"

// TypeFilter excludes listings by property type. Exact terms must match
// the whole type; substring terms match anywhere. Both are
// case-insensitive.
type TypeFilter struct {
	exact      map[string]bool
	substrings []string
}

// NewTypeFilter builds a filter from banned exact and substring terms.
func NewTypeFilter(exact, substrings []string) *TypeFilter {
	f := &TypeFilter{exact: make(map[string]bool, len(exact))}
	for _, e := range exact {
		f.exact[strings.ToLower(strings.TrimSpace(e))] = true
	}
	for _, s := range substrings {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			f.substrings = append(f.substrings, s)
		}
	}
	return f
}

// Allowed reports whether a property type passes the filter.
func (f *TypeFilter) Allowed(propertyType string) bool {
	t := strings.ToLower(strings.TrimSpace(propertyType))
	if f.exact[t] {
		return false
	}
	for _, s := range f.substrings {
		if strings.Contains(t, s) {
			return false
		}
	}
	return true
}

// Apply returns the listings whose property type passes the filter.
func (f *TypeFilter) Apply(listings []Listing) []Listing {
	var kept []Listing
	for _, l := range listings {
		if f.Allowed(l.PropertyType) {
			kept = append(kept, l)
		}
	}
	return kept
}
