package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	defaultSort     = "-createdAt"
)

// allowedSortFields whitelists the fields the list endpoints may sort on.
var allowedSortFields = map[string]struct{}{
	"createdAt":    {},
	"updatedAt":    {},
	"price":        {},
	"views":        {},
	"totalUnlocks": {},
	"title":        {},
}

// PropertyService implements listing creation, search, visibility-projected
// detail, image management and favorites.
type PropertyService struct {
	properties ports.PropertyRepository
	users      ports.UserRepository
	logger     zerolog.Logger
}

func NewPropertyService(properties ports.PropertyRepository, users ports.UserRepository, logger zerolog.Logger) *PropertyService {
	return &PropertyService{properties: properties, users: users, logger: logger}
}

// Create persists a new listing for owner. The normalised duplicate key
// (title, location, area, price, type) is computed before the insert so the
// storage layer's per-landlord uniqueness constraint can reject duplicates.
func (s *PropertyService) Create(ctx context.Context, owner *domain.User, input ports.CreatePropertyInput) (*domain.Property, error) {
	if !owner.Role.CanOwnListings() {
		return nil, domain.ErrForbidden
	}

	propertyType := domain.PropertyType(strings.TrimSpace(input.PropertyType))
	if !propertyType.Valid() {
		return nil, domain.ErrInvalidPropertyType
	}
	if input.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}

	contactPerson := strings.TrimSpace(input.ContactPerson)
	if contactPerson == "" {
		contactPerson = owner.FullName
	}
	contactPhone := strings.TrimSpace(input.ContactPhone)
	if contactPhone == "" {
		contactPhone = owner.PhoneNumber
	}

	now := time.Now().UTC()
	property := &domain.Property{
		LandlordID:    owner.ID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Location:      strings.TrimSpace(input.Location),
		Area:          strings.TrimSpace(input.Area),
		Nearby:        trimAll(input.Nearby),
		Type:          propertyType,
		Price:         input.Price,
		Amenities:     input.Amenities,
		Rules:         resolveRules(domain.DefaultRules(), input.Rules),
		ContactPerson: contactPerson,
		ContactPhone:  contactPhone,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	property.Normalize()

	if err := s.properties.Create(ctx, property); err != nil {
		if errors.Is(err, domain.ErrDuplicateListing) {
			s.logger.Info().Str("landlord_id", owner.ID).Str("title_norm", property.TitleNorm).Msg("duplicate listing rejected")
		}
		return nil, err
	}

	if err := s.users.AddProperty(ctx, owner.ID, property.ID); err != nil {
		s.logger.Warn().Err(err).Str("property_id", property.ID).Msg("failed to link listing to owner")
	}

	s.logger.Info().Str("property_id", property.ID).Str("landlord_id", owner.ID).Msg("property created")
	return property, nil
}

// Search runs the public filtered/paginated listing query. Malformed numeric
// and boolean parameters are silently treated as "filter not applied".
func (s *PropertyService) Search(ctx context.Context, input ports.SearchInput) (*ports.SearchResult, error) {
	page, limit := clampPage(input.Page, input.Limit)
	sortSpec := parseSort(input.Sort)

	filter := ports.SearchFilter{
		Location:     strings.TrimSpace(input.Location),
		Area:         strings.TrimSpace(input.Area),
		PropertyType: strings.TrimSpace(input.PropertyType),
		Amenities:    splitCSV(input.Amenities),
		Pets:         parseOptionalBool(input.Pets),
		Children:     parseOptionalBool(input.Children),
		Visitors:     strings.TrimSpace(input.Visitors),
		MinDeposit:   parseOptionalFloat(input.MinDepositMonths),
		MaxDeposit:   parseOptionalFloat(input.MaxDepositMonths),
		MinPrice:     parseOptionalFloat(input.MinPrice),
		MaxPrice:     parseOptionalFloat(input.MaxPrice),
		Query:        strings.TrimSpace(input.Query),
		Sort:         sortSpec,
		Page:         page,
		Limit:        limit,
	}

	items, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ports.SearchResult{
		Items:      items,
		Pagination: paginate(page, limit, total),
		Applied:    appliedFilters(input, filter),
	}, nil
}

// Get returns the detail view projected for the viewer. Inactive and unknown
// listings are indistinguishable to every caller.
func (s *PropertyService) Get(ctx context.Context, viewer domain.Viewer, id string) (*ports.PropertyDetail, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !property.IsActive {
		return nil, domain.ErrPropertyNotFound
	}

	detail := projectProperty(property, viewer)

	if detail.Visibility != ports.VisibilityOwner {
		if err := s.properties.IncrementViews(ctx, property.ID); err != nil {
			s.logger.Warn().Err(err).Str("property_id", property.ID).Msg("failed to count view")
		}
	}

	return detail, nil
}

// ListMine returns the owner's active listings.
func (s *PropertyService) ListMine(ctx context.Context, owner *domain.User, input ports.ListInput) (*ports.ListResult, error) {
	page, limit := clampPage(input.Page, input.Limit)

	filter := ports.SearchFilter{
		LandlordID: owner.ID,
		Sort:       parseSort(input.Sort),
		Page:       page,
		Limit:      limit,
	}

	items, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ports.ListResult{Items: items, Pagination: paginate(page, limit, total)}, nil
}

// Update applies a partial update. Only the owner may mutate a listing; the
// duplicate key is recomputed so the old normalised key becomes free again.
func (s *PropertyService) Update(ctx context.Context, owner *domain.User, id string, input ports.UpdatePropertyInput) (*domain.Property, error) {
	property, err := s.activeOwnedProperty(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		property.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		property.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		property.Location = strings.TrimSpace(*input.Location)
	}
	if input.Area != nil {
		property.Area = strings.TrimSpace(*input.Area)
	}
	if input.Nearby != nil {
		property.Nearby = trimAll(*input.Nearby)
	}
	if input.PropertyType != nil {
		next := domain.PropertyType(strings.TrimSpace(*input.PropertyType))
		if !next.Valid() {
			return nil, domain.ErrInvalidPropertyType
		}
		property.Type = next
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		property.Price = *input.Price
	}
	if input.Amenities != nil {
		property.Amenities = *input.Amenities
	}
	if input.Rules != nil {
		property.Rules = resolveRules(property.Rules, input.Rules)
	}
	if input.ContactPerson != nil {
		property.ContactPerson = strings.TrimSpace(*input.ContactPerson)
	}
	if input.ContactPhone != nil {
		property.ContactPhone = strings.TrimSpace(*input.ContactPhone)
	}

	deactivated := false
	if input.IsActive != nil {
		deactivated = property.IsActive && !*input.IsActive
		property.IsActive = *input.IsActive
	}

	property.Normalize()
	property.UpdatedAt = time.Now().UTC()

	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}

	if deactivated {
		if err := s.users.RemoveProperty(ctx, owner.ID, property.ID); err != nil {
			s.logger.Warn().Err(err).Str("property_id", property.ID).Msg("failed to unlink deactivated listing")
		}
	}

	return property, nil
}

// Delete soft-deletes a listing: isActive=false and the owner's reference is
// removed. The document itself is never hard-deleted.
func (s *PropertyService) Delete(ctx context.Context, owner *domain.User, id string) error {
	property, err := s.activeOwnedProperty(ctx, owner, id)
	if err != nil {
		return err
	}

	property.IsActive = false
	property.UpdatedAt = time.Now().UTC()
	if err := s.properties.Update(ctx, property); err != nil {
		return err
	}

	if err := s.users.RemoveProperty(ctx, owner.ID, property.ID); err != nil {
		s.logger.Warn().Err(err).Str("property_id", property.ID).Msg("failed to unlink removed listing")
	}

	s.logger.Info().Str("property_id", property.ID).Str("landlord_id", owner.ID).Msg("property removed")
	return nil
}

// AddImage appends a photo. The first image always becomes primary; an
// explicit isPrimary demotes all others first.
func (s *PropertyService) AddImage(ctx context.Context, owner *domain.User, propertyID, rawURL string, isPrimary bool) ([]domain.Image, error) {
	if !validHTTPURL(rawURL) {
		return nil, domain.ErrInvalidImageURL
	}

	property, err := s.activeOwnedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}

	if len(property.Images) >= domain.MaxImagesPerProperty {
		return nil, domain.ErrImageLimit
	}

	cleanURL := strings.TrimSpace(rawURL)
	if property.HasImageURL(cleanURL) {
		return nil, domain.ErrDuplicateImage
	}

	if isPrimary {
		for i := range property.Images {
			property.Images[i].IsPrimary = false
		}
	}
	property.Images = append(property.Images, domain.Image{
		ID:        uuid.NewString(),
		URL:       cleanURL,
		IsPrimary: isPrimary,
	})
	property.EnsurePrimaryImage()
	property.UpdatedAt = time.Now().UTC()

	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}
	return property.Images, nil
}

// SetPrimaryImage makes the given image the listing's thumbnail.
func (s *PropertyService) SetPrimaryImage(ctx context.Context, owner *domain.User, propertyID, imageID string) ([]domain.Image, error) {
	property, err := s.activeOwnedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}

	idx := property.FindImage(imageID)
	if idx < 0 {
		return nil, domain.ErrImageNotFound
	}

	for i := range property.Images {
		property.Images[i].IsPrimary = i == idx
	}
	property.UpdatedAt = time.Now().UTC()

	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}
	return property.Images, nil
}

// RemoveImage deletes a photo; when the primary is removed the first
// remaining image is promoted.
func (s *PropertyService) RemoveImage(ctx context.Context, owner *domain.User, propertyID, imageID string) ([]domain.Image, error) {
	property, err := s.activeOwnedProperty(ctx, owner, propertyID)
	if err != nil {
		return nil, err
	}

	idx := property.FindImage(imageID)
	if idx < 0 {
		return nil, domain.ErrImageNotFound
	}

	property.Images = append(property.Images[:idx], property.Images[idx+1:]...)
	property.EnsurePrimaryImage()
	property.UpdatedAt = time.Now().UTC()

	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}
	return property.Images, nil
}

// AddFavorite bookmarks an active listing for the user (set semantics).
func (s *PropertyService) AddFavorite(ctx context.Context, user *domain.User, propertyID string) error {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if !property.IsActive {
		return domain.ErrPropertyNotFound
	}
	return s.users.AddFavorite(ctx, user.ID, propertyID)
}

// RemoveFavorite is idempotent; removing an absent favorite succeeds.
func (s *PropertyService) RemoveFavorite(ctx context.Context, user *domain.User, propertyID string) error {
	return s.users.RemoveFavorite(ctx, user.ID, propertyID)
}

// ListFavorites pages through the user's bookmarked active listings.
func (s *PropertyService) ListFavorites(ctx context.Context, user *domain.User, input ports.ListInput) (*ports.ListResult, error) {
	page, limit := clampPage(input.Page, input.Limit)

	if len(user.Favorites) == 0 {
		return &ports.ListResult{
			Items:      []ports.PropertySummary{},
			Pagination: paginate(page, limit, 0),
		}, nil
	}

	filter := ports.SearchFilter{
		IDs:   user.Favorites,
		Sort:  parseSort(input.Sort),
		Page:  page,
		Limit: limit,
	}

	items, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ports.ListResult{Items: items, Pagination: paginate(page, limit, total)}, nil
}

// activeOwnedProperty loads a listing and enforces the existence, active and
// ownership checks shared by every owner-only mutation.
func (s *PropertyService) activeOwnedProperty(ctx context.Context, owner *domain.User, id string) (*domain.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !property.IsActive {
		return nil, domain.ErrPropertyNotFound
	}
	if property.LandlordID != owner.ID {
		return nil, domain.ErrForbidden
	}
	return property, nil
}

// --- query parameter helpers ---

func clampPage(rawPage, rawLimit string) (page, limit int) {
	page = parseIntOr(rawPage, 1)
	if page < 1 {
		page = 1
	}
	limit = parseIntOr(rawLimit, defaultPageSize)
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// parseIntOr returns def for non-numeric or zero input. Negative values pass
// through so the caller clamps them to the range floor instead of silently
// restoring the default.
func parseIntOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return def
	}
	return n
}

// parseOptionalBool accepts only the literal strings "true" and "false".
func parseOptionalBool(s string) *bool {
	switch strings.TrimSpace(s) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// parseOptionalFloat returns nil for absent or non-numeric input, which
// drops the bound from the range filter.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSort converts "field,-other" into an ordered sort spec. Unknown
// fields are skipped; an empty result falls back to createdAt descending.
func parseSort(s string) []ports.SortField {
	if strings.TrimSpace(s) == "" {
		s = defaultSort
	}

	var spec []ports.SortField
	for _, raw := range strings.Split(s, ",") {
		field := strings.TrimSpace(raw)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		if desc {
			field = field[1:]
		}
		if _, ok := allowedSortFields[field]; !ok {
			continue
		}
		spec = append(spec, ports.SortField{Field: field, Desc: desc})
	}

	if len(spec) == 0 {
		spec = []ports.SortField{{Field: "createdAt", Desc: true}}
	}
	return spec
}

func paginate(page, limit int, total int64) ports.Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}
	return ports.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func appliedFilters(input ports.SearchInput, filter ports.SearchFilter) ports.AppliedFilters {
	applied := ports.AppliedFilters{Sort: orDefault(input.Sort, defaultSort)}

	applied.Location = nonEmpty(filter.Location)
	applied.Area = nonEmpty(filter.Area)
	applied.PropertyType = nonEmpty(filter.PropertyType)
	applied.Amenities = nonEmpty(strings.Join(filter.Amenities, ","))
	if filter.Pets != nil {
		applied.Pets = nonEmpty(strconv.FormatBool(*filter.Pets))
	}
	if filter.Children != nil {
		applied.Children = nonEmpty(strconv.FormatBool(*filter.Children))
	}
	applied.Visitors = nonEmpty(filter.Visitors)
	applied.MinDepositMonths = filter.MinDeposit
	applied.MaxDepositMonths = filter.MaxDeposit
	applied.MinPrice = filter.MinPrice
	applied.MaxPrice = filter.MaxPrice
	applied.Query = nonEmpty(filter.Query)

	return applied
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func resolveRules(base domain.Rules, input *ports.RulesInput) domain.Rules {
	if input == nil {
		return base
	}
	if input.Pets != nil {
		base.Pets = *input.Pets
	}
	if input.Children != nil {
		base.Children = *input.Children
	}
	if v := strings.TrimSpace(input.Visitors); v != "" {
		base.Visitors = v
	}
	if input.DepositMonths != nil && *input.DepositMonths >= 0 {
		base.DepositMonths = *input.DepositMonths
	}
	return base
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
