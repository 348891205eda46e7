// Package registry provides model registry value types and pure resolution
// functions over ordered entry lists.
package registry

// Entry represents a registered backend model (immutable value type).
// Alias defaults to Name when unset. Aliases need not be unique across
// entries; resolution is deterministic in insertion order.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Alias   string `json:"alias"`
}

// Normalize fills in the alias default.
func Normalize(e Entry) Entry {
	if e.Alias == "" {
		e.Alias = e.Name
	}
	return e
}

// Resolve finds an entry by name or alias over an ordered entry list.
// Name matches take precedence over alias matches; within each pass the
// first entry in insertion order wins. A miss returns (Entry{}, false).
func Resolve(entries []Entry, nameOrAlias string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == nameOrAlias {
			return e, true
		}
	}
	for _, e := range entries {
		if e.Alias == nameOrAlias {
			return e, true
		}
	}
	return Entry{}, false
}
