package permission

// Record is the evaluation of one named permission for an identity at a location.
type Record struct {
	Name          string `json:"name"`
	Resource      string `json:"resource"`
	Action        string `json:"action"`
	HasPermission bool   `json:"has_permission"`
	Source        Source `json:"source"`
}

// Check is a single resource/action pair to evaluate.
type Check struct {
	Resource string
	Action   string
}

// Name returns the permission name for a resource/action pair.
func Name(resource, action string) string {
	return action + "_" + resource
}

// Name returns the permission name of the check.
func (c Check) Name() string {
	return Name(c.Resource, c.Action)
}

// Set is an immutable snapshot of the permission records fetched for one key.
type Set struct {
	records map[string]Record
	order   []string
}

// NewSet indexes records by name. Duplicate names are merged: the permission is granted if
// any duplicate grants it and the provenances are combined.
func NewSet(records []Record) *Set {
	s := &Set{
		records: make(map[string]Record, len(records)),
		order:   make([]string, 0, len(records)),
	}

	for _, r := range records {
		if r.Name == "" {
			r.Name = Name(r.Resource, r.Action)
		}

		if prev, ok := s.records[r.Name]; ok {
			prev.HasPermission = prev.HasPermission || r.HasPermission
			prev.Source = prev.Source.Merge(r.Source)
			s.records[r.Name] = prev

			continue
		}

		s.records[r.Name] = r
		s.order = append(s.order, r.Name)
	}

	return s
}

// Lookup returns the record with the given name.
func (s *Set) Lookup(name string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}

	r, ok := s.records[name]

	return r, ok
}

// Records returns the records in the order they were received.
func (s *Set) Records() []Record {
	if s == nil {
		return nil
	}

	out := make([]Record, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}

	return out
}

// Len returns the number of distinct records.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.records)
}

// Has reports whether the set grants action on resource.
func Has(set *Set, resource, action string) bool {
	r, ok := set.Lookup(Name(resource, action))

	return ok && r.HasPermission
}

// HasAny reports whether at least one check passes.
func HasAny(set *Set, checks ...Check) bool {
	for _, c := range checks {
		if Has(set, c.Resource, c.Action) {
			return true
		}
	}

	return false
}

// HasAll reports whether every check passes. No checks means no restriction.
func HasAll(set *Set, checks ...Check) bool {
	for _, c := range checks {
		if !Has(set, c.Resource, c.Action) {
			return false
		}
	}

	return true
}
