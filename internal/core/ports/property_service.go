package ports

import (
	"context"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// RulesInput carries house rules from the transport layer. Nil pointers keep
// the listing defaults (children=true, depositMonths=1).
type RulesInput struct {
	Pets          *bool
	Children      *bool
	Visitors      string
	DepositMonths *int
}

// CreatePropertyInput carries all data needed to create a listing. Contact
// fields default to the owner's name and phone when empty.
type CreatePropertyInput struct {
	Title         string
	Description   string
	Location      string
	Area          string
	Nearby        []string
	PropertyType  string
	Price         float64
	Amenities     []string
	Rules         *RulesInput
	ContactPerson string
	ContactPhone  string
}

// UpdatePropertyInput is a partial update; nil fields are left untouched.
type UpdatePropertyInput struct {
	Title         *string
	Description   *string
	Location      *string
	Area          *string
	Nearby        *[]string
	PropertyType  *string
	Price         *float64
	Amenities     *[]string
	Rules         *RulesInput
	ContactPerson *string
	ContactPhone  *string
	IsActive      *bool
}

// SearchInput carries the raw query parameters of the public list endpoint.
// Values arrive as strings; malformed numerics and booleans are silently
// treated as "filter not applied".
type SearchInput struct {
	Location         string
	Area             string
	PropertyType     string
	Amenities        string // comma-separated
	Pets             string // literal "true"/"false"
	Children         string // literal "true"/"false"
	Visitors         string
	MinDepositMonths string
	MaxDepositMonths string
	MinPrice         string
	MaxPrice         string
	Query            string
	Page             string
	Limit            string
	Sort             string // comma-separated, leading '-' = descending
}

// ListInput is the pagination/sort subset used by owner and favorites lists.
type ListInput struct {
	Page  string
	Limit string
	Sort  string
}

// Pagination describes one result page.
type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int
}

// AppliedFilters echoes the filters a search actually applied, for client
// display. Nil means the filter was not supplied.
type AppliedFilters struct {
	Location         *string
	Area             *string
	PropertyType     *string
	Amenities        *string
	Pets             *string
	Children         *string
	Visitors         *string
	MinDepositMonths *float64
	MaxDepositMonths *float64
	MinPrice         *float64
	MaxPrice         *float64
	Query            *string
	Sort             string
}

// SearchResult is returned by the public search.
type SearchResult struct {
	Items      []PropertySummary
	Pagination Pagination
	Applied    AppliedFilters
}

// ListResult is returned by owner and favorites lists.
type ListResult struct {
	Items      []PropertySummary
	Pagination Pagination
}

// Visibility tags how much of a listing the viewer may see.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityOwner    Visibility = "owner"
	VisibilityUnlocked Visibility = "unlocked"
)

// PropertyDetail is the detail view: the projected listing plus the
// visibility tag the projection was made under.
type PropertyDetail struct {
	Property   *domain.Property
	Visibility Visibility
}

// PropertyService defines use-case operations for listings.
type PropertyService interface {
	Create(ctx context.Context, owner *domain.User, input CreatePropertyInput) (*domain.Property, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	Get(ctx context.Context, viewer domain.Viewer, id string) (*PropertyDetail, error)
	ListMine(ctx context.Context, owner *domain.User, input ListInput) (*ListResult, error)
	Update(ctx context.Context, owner *domain.User, id string, input UpdatePropertyInput) (*domain.Property, error)
	Delete(ctx context.Context, owner *domain.User, id string) error

	AddImage(ctx context.Context, owner *domain.User, propertyID, url string, isPrimary bool) ([]domain.Image, error)
	SetPrimaryImage(ctx context.Context, owner *domain.User, propertyID, imageID string) ([]domain.Image, error)
	RemoveImage(ctx context.Context, owner *domain.User, propertyID, imageID string) ([]domain.Image, error)

	AddFavorite(ctx context.Context, user *domain.User, propertyID string) error
	RemoveFavorite(ctx context.Context, user *domain.User, propertyID string) error
	ListFavorites(ctx context.Context, user *domain.User, input ListInput) (*ListResult, error)
}
