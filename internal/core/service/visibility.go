package service

import (
	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

// projectProperty decides how much of a listing the viewer may see.
//
//	owner    — landlord match: everything.
//	unlocked — tenant with a completed unlock: everything.
//	public   — anyone else (including anonymous): contact fields stripped.
//
// The public projection is a copy; the stored document is never mutated.
func projectProperty(p *domain.Property, viewer domain.Viewer) *ports.PropertyDetail {
	if viewer.IsOwnerOf(p) {
		return &ports.PropertyDetail{Property: p, Visibility: ports.VisibilityOwner}
	}

	if viewer.Authenticated() && viewer.User.Unlocked(p.ID) != nil {
		return &ports.PropertyDetail{Property: p, Visibility: ports.VisibilityUnlocked}
	}

	masked := *p
	masked.ContactPerson = ""
	masked.ContactPhone = ""
	return &ports.PropertyDetail{Property: &masked, Visibility: ports.VisibilityPublic}
}
