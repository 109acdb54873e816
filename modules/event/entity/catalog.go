package entity

// SubRoleEntry is a class selectable under a primary role.
type SubRoleEntry struct {
	Name               string `json:"name" yaml:"name"`
	Glyph              string `json:"glyph" yaml:"glyph"`
	RequiredCredential string `json:"required_credential,omitempty" yaml:"required_credential,omitempty"`
}

// RoleCatalogEntry is configuration fixed at event creation; it is never
// edited in place afterwards.
type RoleCatalogEntry struct {
	Name               string         `json:"name" yaml:"name"`
	Glyph              string         `json:"glyph" yaml:"glyph"`
	SubRoles           []SubRoleEntry `json:"sub_roles,omitempty" yaml:"sub_roles,omitempty"`
	RequiredCredential string         `json:"required_credential,omitempty" yaml:"required_credential,omitempty"`
}

type RoleCatalog []RoleCatalogEntry

// CredentialSet is a set of opaque credential (external role) identifiers.
type CredentialSet []string

func (c RoleCatalog) Find(name string) (RoleCatalogEntry, bool) {
	for _, entry := range c {
		if entry.Name == name {
			return entry, true
		}
	}
	return RoleCatalogEntry{}, false
}

func (r RoleCatalogEntry) HasSubRoles() bool {
	return len(r.SubRoles) > 0
}

func (r RoleCatalogEntry) FindSubRole(name string) (SubRoleEntry, bool) {
	for _, sub := range r.SubRoles {
		if sub.Name == name {
			return sub, true
		}
	}
	return SubRoleEntry{}, false
}

// Clone returns a deep copy so callers never share nested slices with the event.
func (c RoleCatalog) Clone() RoleCatalog {
	if c == nil {
		return nil
	}
	out := make(RoleCatalog, len(c))
	for i, entry := range c {
		out[i] = entry
		out[i].SubRoles = append([]SubRoleEntry(nil), entry.SubRoles...)
	}
	return out
}

func (s CredentialSet) Contains(credential string) bool {
	for _, c := range s {
		if c == credential {
			return true
		}
	}
	return false
}

// Satisfies reports whether held grants access to a gate. An empty gate is open.
func Satisfies(required string, held CredentialSet) bool {
	return required == "" || held.Contains(required)
}

// ContainsAny reports whether at least one of other is in s.
func (s CredentialSet) ContainsAny(other CredentialSet) bool {
	for _, c := range other {
		if s.Contains(c) {
			return true
		}
	}
	return false
}
