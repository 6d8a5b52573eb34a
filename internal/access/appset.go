package access

import "sort"

// AppSet is the result of access resolution: either the full catalog
// ("all apps", from the admin role or a wildcard grant) or an explicit set of
// app IDs. The wildcard sentinel never appears inside the ID set; it is
// expanded into the All form before any membership test.
type AppSet struct {
	all bool
	ids map[string]struct{}
}

// NewAppSet builds an explicit set from the given IDs.
func NewAppSet(ids ...string) AppSet {
	s := AppSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}

	return s
}

// AllApps returns the "full catalog" set.
func AllApps() AppSet {
	return AppSet{all: true}
}

// All reports whether the set covers the full catalog.
func (s AppSet) All() bool {
	return s.all
}

// Contains reports whether the given app ID is in the set. For the full
// catalog form it reports whether the catalog knows the ID at all, so the two
// forms agree on membership.
func (s AppSet) Contains(id string, catalogHas func(string) bool) bool {
	if s.all {
		return catalogHas(id)
	}

	_, ok := s.ids[id]

	return ok
}

// IDs materializes the set against the given full catalog ID list, sorted.
func (s AppSet) IDs(catalogIDs []string) []string {
	if s.all {
		out := make([]string, len(catalogIDs))
		copy(out, catalogIDs)
		sort.Strings(out)

		return out
	}

	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

// Len returns the set size against the given catalog size.
func (s AppSet) Len(catalogLen int) int {
	if s.all {
		return catalogLen
	}

	return len(s.ids)
}

// add inserts an ID into an explicit set. No-op on the full catalog form.
func (s *AppSet) add(id string) {
	if s.all {
		return
	}

	s.ids[id] = struct{}{}
}
