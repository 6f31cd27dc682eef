package ports

import (
	"context"
	"time"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

// SortField is one element of a multi-field sort; later fields break ties on
// earlier ones.
type SortField struct {
	Field string
	Desc  bool
}

// SearchFilter is the normalised query the service hands to the repository.
// Every optional predicate is a pointer or zero-value-skipped field; the
// repository adds an implicit isActive=true clause to every search.
type SearchFilter struct {
	Location     string   // case-insensitive substring
	Area         string   // case-insensitive substring
	PropertyType string   // exact match
	Amenities    []string // set inclusion: all must be present
	Pets         *bool
	Children     *bool
	Visitors     string // exact match: allowed|restricted
	MinDeposit   *float64
	MaxDeposit   *float64
	MinPrice     *float64
	MaxPrice     *float64
	Query        string // full-text search over title+description

	LandlordID string   // restrict to one owner's listings
	IDs        []string // restrict to an explicit ID set (favorites)

	Sort  []SortField
	Page  int // 1-based, clamped by the service
	Limit int
}

// PropertySummary is the list-view row: no contact fields, no raw image
// list, only the derived primary image.
type PropertySummary struct {
	ID           string
	Title        string
	Description  string
	Location     string
	Area         string
	Nearby       []string
	PropertyType string
	Price        float64
	Amenities    []string
	Rules        domain.Rules
	PrimaryImage *string
	IsVerified   bool
	Views        int64
	TotalUnlocks int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PropertyRepository defines persistence operations for listings.
type PropertyRepository interface {
	// Create inserts a new listing and sets its ID. A duplicate-listing
	// key collision maps to domain.ErrDuplicateListing.
	Create(ctx context.Context, p *domain.Property) error

	// FindByID retrieves a listing regardless of isActive; callers decide
	// how to treat soft-deleted documents.
	FindByID(ctx context.Context, id string) (*domain.Property, error)

	// Update replaces the mutable fields of the listing. A duplicate-listing
	// key collision maps to domain.ErrDuplicateListing.
	Update(ctx context.Context, p *domain.Property) error

	// Search returns one page of summaries plus the total match count.
	Search(ctx context.Context, filter SearchFilter) ([]PropertySummary, int64, error)

	IncrementViews(ctx context.Context, id string) error
	IncrementUnlocks(ctx context.Context, id string) error
}
