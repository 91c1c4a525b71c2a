package corpus

// Filter narrows corpus reads by metadata before any scoring happens.
// The zero value matches every entry.
type Filter struct {
	Domains        []string
	MinCredibility int
}

// Matches reports whether the entry passes the filter.
func (f *Filter) Matches(e *Entry) bool {
	if len(f.Domains) > 0 {
		found := false
		for _, d := range f.Domains {
			if e.Domain() == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return e.CredibilityScore() >= f.MinCredibility
}
