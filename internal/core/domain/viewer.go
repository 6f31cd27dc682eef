package domain

// Viewer identifies who is looking at a resource. The zero value is the
// anonymous viewer; endpoints with optional authentication thread a Viewer
// through instead of mutating shared request state.
type Viewer struct {
	User *User
}

// Anonymous is the viewer for unauthenticated requests.
var Anonymous = Viewer{}

// Authenticated reports whether the viewer carries a resolved identity.
func (v Viewer) Authenticated() bool {
	return v.User != nil
}

// IsOwnerOf reports whether the viewer owns the given property.
func (v Viewer) IsOwnerOf(p *Property) bool {
	return v.User != nil && p.LandlordID == v.User.ID
}
