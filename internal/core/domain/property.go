package domain

import (
	"errors"
	"strings"
	"time"
)

// PropertyType enumerates the supported unit categories.
type PropertyType string

const (
	TypeBedsitter  PropertyType = "bedsitter"
	TypeStudio     PropertyType = "studio"
	TypeApartment  PropertyType = "apartment"
	TypeOneBedroom PropertyType = "1-bedroom"
	TypeTwoBedroom PropertyType = "2-bedroom"
	TypeThreeBed   PropertyType = "3-bedroom"
	TypeCommercial PropertyType = "commercial"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeBedsitter, TypeStudio, TypeApartment, TypeOneBedroom,
		TypeTwoBedroom, TypeThreeBed, TypeCommercial:
		return true
	}
	return false
}

// Amenities a listing may advertise.
var Amenities = []string{
	"water", "electricity", "parking", "security",
	"furnished", "WiFi", "gym", "swimming pool",
}

// ValidAmenity reports whether a is a known amenity.
func ValidAmenity(a string) bool {
	for _, known := range Amenities {
		if a == known {
			return true
		}
	}
	return false
}

const (
	// MaxImagesPerProperty caps the image list per listing.
	MaxImagesPerProperty = 10

	VisitorsAllowed    = "allowed"
	VisitorsRestricted = "restricted"
)

var (
	ErrPropertyNotFound    = errors.New("property not found")
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidPrice        = errors.New("price must not be negative")
	ErrDuplicateListing    = errors.New("duplicate listing")
	ErrForbidden           = errors.New("access forbidden")
	ErrImageNotFound       = errors.New("image not found")
	ErrDuplicateImage      = errors.New("image already added")
	ErrImageLimit          = errors.New("image limit reached")
	ErrInvalidImageURL     = errors.New("image url must start with http:// or https://")
)

// Rules describes the landlord's house rules for a listing.
type Rules struct {
	Pets          bool   `json:"pets"`
	Children      bool   `json:"children"`
	Visitors      string `json:"visitors"`
	DepositMonths int    `json:"depositMonths"`
}

// DefaultRules mirrors the listing defaults: children welcome, visitors
// allowed, one month deposit.
func DefaultRules() Rules {
	return Rules{Pets: false, Children: true, Visitors: VisitorsAllowed, DepositMonths: 1}
}

// Image is a single listing photo. At most one image per property carries
// IsPrimary=true; see EnsurePrimaryImage.
type Image struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// Property is a rentable unit owned by exactly one landlord or agent.
// LandlordID is immutable after creation.
type Property struct {
	ID          string       `json:"id"`
	LandlordID  string       `json:"landlordId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	Area        string       `json:"area,omitempty"`
	Nearby      []string     `json:"nearby,omitempty"`
	Type        PropertyType `json:"propertyType"`
	Price       float64      `json:"price"`
	Images      []Image      `json:"images"`
	Amenities   []string     `json:"amenities"`
	Rules       Rules        `json:"rules"`

	// Contact fields are the paid content: visible only to the owner and
	// to tenants with a completed unlock.
	ContactPerson string `json:"contactPerson,omitempty"`
	ContactPhone  string `json:"contactPhone,omitempty"`

	// Normalised copies of title/location/area used solely for the
	// per-landlord duplicate-listing constraint. Never rendered.
	TitleNorm    string `json:"-"`
	LocationNorm string `json:"-"`
	AreaNorm     string `json:"-"`

	IsActive     bool  `json:"isActive"`
	IsVerified   bool  `json:"isVerified"`
	Views        int64 `json:"views"`
	TotalUnlocks int64 `json:"totalUnlocks"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeListingField canonicalises a free-text field for duplicate
// detection: trimmed, lowercased, internal whitespace collapsed to single
// spaces.
func NormalizeListingField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Normalize recomputes the duplicate-detection fields. Must be called before
// every insert or update that may have touched title, location or area.
func (p *Property) Normalize() {
	p.TitleNorm = NormalizeListingField(p.Title)
	p.LocationNorm = NormalizeListingField(p.Location)
	p.AreaNorm = NormalizeListingField(p.Area)
}

// EnsurePrimaryImage restores the exactly-one-primary invariant after any
// mutation of the image list: when images exist, the first flagged image
// stays primary and all later flags are cleared; when none is flagged, the
// first image is promoted.
func (p *Property) EnsurePrimaryImage() {
	if len(p.Images) == 0 {
		return
	}
	seen := false
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			if seen {
				p.Images[i].IsPrimary = false
			}
			seen = true
		}
	}
	if !seen {
		p.Images[0].IsPrimary = true
	}
}

// PrimaryImageURL returns the representative thumbnail: the flagged primary
// image, else the first image, else nil.
func (p *Property) PrimaryImageURL() *string {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i].URL
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0].URL
	}
	return nil
}

// FindImage returns the index of the image with the given ID, or -1.
func (p *Property) FindImage(imageID string) int {
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			return i
		}
	}
	return -1
}

// HasImageURL reports whether the listing already carries url
// (case-insensitive comparison on the trimmed URL).
func (p *Property) HasImageURL(url string) bool {
	needle := strings.ToLower(strings.TrimSpace(url))
	for i := range p.Images {
		if strings.ToLower(strings.TrimSpace(p.Images[i].URL)) == needle {
			return true
		}
	}
	return false
}
