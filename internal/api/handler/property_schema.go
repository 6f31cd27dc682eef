package handler

import "time"

// apiResponse is the success envelope shared by every endpoint.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// --- Request types ---

type rulesRequest struct {
	Pets          *bool  `json:"pets"`
	Children      *bool  `json:"children"`
	Visitors      string `json:"visitors"      validate:"omitempty,oneof=allowed restricted"`
	DepositMonths *int   `json:"depositMonths" validate:"omitempty,gte=0"`
}

type createPropertyRequest struct {
	Title         string        `json:"title"         validate:"required"`
	Description   string        `json:"description"   validate:"required"`
	Location      string        `json:"location"      validate:"required"`
	Area          string        `json:"area"`
	Nearby        []string      `json:"nearby"`
	PropertyType  string        `json:"propertyType"  validate:"required,oneof=bedsitter studio apartment 1-bedroom 2-bedroom 3-bedroom commercial"`
	Price         float64       `json:"price"         validate:"gte=0"`
	Amenities     []string      `json:"amenities"`
	Rules         *rulesRequest `json:"rules"`
	ContactPerson string        `json:"contactPerson"`
	ContactPhone  string        `json:"contactPhone"`
}

type updatePropertyRequest struct {
	Title         *string       `json:"title"`
	Description   *string       `json:"description"`
	Location      *string       `json:"location"`
	Area          *string       `json:"area"`
	Nearby        *[]string     `json:"nearby"`
	PropertyType  *string       `json:"propertyType" validate:"omitempty,oneof=bedsitter studio apartment 1-bedroom 2-bedroom 3-bedroom commercial"`
	Price         *float64      `json:"price"        validate:"omitempty,gte=0"`
	Amenities     *[]string     `json:"amenities"`
	Rules         *rulesRequest `json:"rules"`
	ContactPerson *string       `json:"contactPerson"`
	ContactPhone  *string       `json:"contactPhone"`
	IsActive      *bool         `json:"isActive"`
}

type addImageRequest struct {
	URL       string `json:"url"       validate:"required,url"`
	IsPrimary bool   `json:"isPrimary"`
}

// --- Response types ---
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type rulesResponse struct {
	Pets          bool   `json:"pets"`
	Children      bool   `json:"children"`
	Visitors      string `json:"visitors"`
	DepositMonths int    `json:"depositMonths"`
}

type imageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// propertyResponse is the detail view. Contact fields are omitted entirely
// for public viewers; the visibility tag says which projection was applied.
type propertyResponse struct {
	ID            string          `json:"id"`
	LandlordID    string          `json:"landlordId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	Area          string          `json:"area,omitempty"`
	Nearby        []string        `json:"nearby,omitempty"`
	PropertyType  string          `json:"propertyType"`
	Price         float64         `json:"price"`
	Images        []imageResponse `json:"images"`
	Amenities     []string        `json:"amenities"`
	Rules         rulesResponse   `json:"rules"`
	ContactPerson string          `json:"contactPerson,omitempty"`
	ContactPhone  string          `json:"contactPhone,omitempty"`
	IsActive      bool            `json:"isActive"`
	IsVerified    bool            `json:"isVerified"`
	Views         int64           `json:"views"`
	TotalUnlocks  int64           `json:"totalUnlocks"`
	Visibility    string          `json:"visibility,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// propertySummaryResponse is the lightweight list row. It never carries
// contact fields or the raw image list.
type propertySummaryResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Location     string        `json:"location"`
	Area         string        `json:"area,omitempty"`
	Nearby       []string      `json:"nearby,omitempty"`
	PropertyType string        `json:"propertyType"`
	Price        float64       `json:"price"`
	Amenities    []string      `json:"amenities"`
	Rules        rulesResponse `json:"rules"`
	PrimaryImage *string       `json:"primaryImage"`
	IsVerified   bool          `json:"isVerified"`
	Views        int64         `json:"views"`
	TotalUnlocks int64         `json:"totalUnlocks"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type appliedFiltersResponse struct {
	Location         *string  `json:"location,omitempty"`
	Area             *string  `json:"area,omitempty"`
	PropertyType     *string  `json:"propertyType,omitempty"`
	Amenities        *string  `json:"amenities,omitempty"`
	Pets             *string  `json:"pets,omitempty"`
	Children         *string  `json:"children,omitempty"`
	Visitors         *string  `json:"visitors,omitempty"`
	MinDepositMonths *float64 `json:"minDepositMonths,omitempty"`
	MaxDepositMonths *float64 `json:"maxDepositMonths,omitempty"`
	MinPrice         *float64 `json:"minPrice,omitempty"`
	MaxPrice         *float64 `json:"maxPrice,omitempty"`
	Query            *string  `json:"q,omitempty"`
	Sort             string   `json:"sort"`
}

type searchPropertiesResponse struct {
	Properties []propertySummaryResponse `json:"properties"`
	Pagination paginationResponse        `json:"pagination"`
	Filters    appliedFiltersResponse    `json:"filters"`
}

type listPropertiesResponse struct {
	Properties []propertySummaryResponse `json:"properties"`
	Pagination paginationResponse        `json:"pagination"`
}

type imagesResponse struct {
	Images []imageResponse `json:"images"`
}

type unlockResponse struct {
	TransactionID   string    `json:"transactionId"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	UnlockedAt      time.Time `json:"unlockedAt"`
	AlreadyUnlocked bool      `json:"alreadyUnlocked"`
	ContactPerson   string    `json:"contactPerson"`
	ContactPhone    string    `json:"contactPhone"`
}
