package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories (shared by the service tests in this package)
// ---------------------------------------------------------------------------

type stubPropertyRepo struct {
	byID      map[string]*domain.Property
	seq       int
	createErr error
}

func newStubPropertyRepo() *stubPropertyRepo {
	return &stubPropertyRepo{byID: map[string]*domain.Property{}}
}

func (r *stubPropertyRepo) dupKey(p *domain.Property) string {
	return strings.Join([]string{p.LandlordID, p.TitleNorm, p.LocationNorm, p.AreaNorm,
		fmt.Sprintf("%v", p.Price), string(p.Type)}, "|")
}

func (r *stubPropertyRepo) Create(_ context.Context, p *domain.Property) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if r.dupKey(existing) == r.dupKey(p) {
			return domain.ErrDuplicateListing
		}
	}
	r.seq++
	p.ID = fmt.Sprintf("prop_%d", r.seq)
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPropertyRepo) FindByID(_ context.Context, id string) (*domain.Property, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	clone := *p
	clone.Images = append([]domain.Image(nil), p.Images...)
	return &clone, nil
}

func (r *stubPropertyRepo) Update(_ context.Context, p *domain.Property) error {
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrPropertyNotFound
	}
	for id, existing := range r.byID {
		if id != p.ID && r.dupKey(existing) == r.dupKey(p) {
			return domain.ErrDuplicateListing
		}
	}
	clone := *p
	clone.Images = append([]domain.Image(nil), p.Images...)
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPropertyRepo) Search(_ context.Context, f ports.SearchFilter) ([]ports.PropertySummary, int64, error) {
	var matched []*domain.Property
	for _, p := range r.byID {
		if !p.IsActive {
			continue
		}
		if f.LandlordID != "" && p.LandlordID != f.LandlordID {
			continue
		}
		if f.IDs != nil && !containsString(f.IDs, p.ID) {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(f.Location)) {
			continue
		}
		if f.Area != "" && !strings.Contains(strings.ToLower(p.Area), strings.ToLower(f.Area)) {
			continue
		}
		if f.PropertyType != "" && string(p.Type) != f.PropertyType {
			continue
		}
		if !containsAll(p.Amenities, f.Amenities) {
			continue
		}
		if f.Pets != nil && p.Rules.Pets != *f.Pets {
			continue
		}
		if f.Children != nil && p.Rules.Children != *f.Children {
			continue
		}
		if f.Visitors != "" && p.Rules.Visitors != f.Visitors {
			continue
		}
		if f.MinDeposit != nil && float64(p.Rules.DepositMonths) < *f.MinDeposit {
			continue
		}
		if f.MaxDeposit != nil && float64(p.Rules.DepositMonths) > *f.MaxDeposit {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.Query != "" {
			haystack := strings.ToLower(p.Title + " " + p.Description)
			if !strings.Contains(haystack, strings.ToLower(f.Query)) {
				continue
			}
		}
		matched = append(matched, p)
	}

	// Apply sort fields in reverse so earlier fields dominate.
	for i := len(f.Sort) - 1; i >= 0; i-- {
		sf := f.Sort[i]
		sort.SliceStable(matched, func(a, b int) bool {
			less := lessByField(matched[a], matched[b], sf.Field)
			if sf.Desc {
				return lessByField(matched[b], matched[a], sf.Field)
			}
			return less
		})
	}

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		skip = len(matched)
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]ports.PropertySummary, 0, end-skip)
	for _, p := range matched[skip:end] {
		out = append(out, ports.PropertySummary{
			ID:           p.ID,
			Title:        p.Title,
			Description:  p.Description,
			Location:     p.Location,
			Area:         p.Area,
			Nearby:       p.Nearby,
			PropertyType: string(p.Type),
			Price:        p.Price,
			Amenities:    p.Amenities,
			Rules:        p.Rules,
			PrimaryImage: p.PrimaryImageURL(),
			IsVerified:   p.IsVerified,
			Views:        p.Views,
			TotalUnlocks: p.TotalUnlocks,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return out, total, nil
}

func (r *stubPropertyRepo) IncrementViews(_ context.Context, id string) error {
	if p, ok := r.byID[id]; ok {
		p.Views++
	}
	return nil
}

func (r *stubPropertyRepo) IncrementUnlocks(_ context.Context, id string) error {
	if p, ok := r.byID[id]; ok {
		p.TotalUnlocks++
	}
	return nil
}

func lessByField(a, b *domain.Property, field string) bool {
	switch field {
	case "price":
		return a.Price < b.Price
	case "title":
		return a.Title < b.Title
	case "views":
		return a.Views < b.Views
	case "totalUnlocks":
		return a.TotalUnlocks < b.TotalUnlocks
	case "updatedAt":
		return a.UpdatedAt.Before(b.UpdatedAt)
	default: // createdAt
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !containsString(have, w) {
			return false
		}
	}
	return true
}

type stubUserRepo struct {
	byID map[string]*domain.User
	seq  int

	// grantErr fails the next AddUnlockGrant call, then clears.
	grantErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[string]*domain.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.byID {
		if existing.PhoneNumber == u.PhoneNumber {
			return domain.ErrUserExists
		}
		if u.Email != "" && existing.Email == u.Email {
			return domain.ErrEmailInUse
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user_%d", r.seq)
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phoneNumber string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.PhoneNumber == phoneNumber {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for id, u := range r.byID {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, fullName, email string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) SetLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := r.byID[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *stubUserRepo) AddProperty(_ context.Context, userID, propertyID string) error {
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !containsString(u.Properties, propertyID) {
		u.Properties = append(u.Properties, propertyID)
	}
	return nil
}

func (r *stubUserRepo) RemoveProperty(_ context.Context, userID, propertyID string) error {
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Properties = removeString(u.Properties, propertyID)
	return nil
}

func (r *stubUserRepo) AddFavorite(_ context.Context, userID, propertyID string) error {
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !containsString(u.Favorites, propertyID) {
		u.Favorites = append(u.Favorites, propertyID)
	}
	return nil
}

func (r *stubUserRepo) RemoveFavorite(_ context.Context, userID, propertyID string) error {
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Favorites = removeString(u.Favorites, propertyID)
	return nil
}

func (r *stubUserRepo) AddUnlockGrant(_ context.Context, userID string, grant domain.UnlockGrant) error {
	if r.grantErr != nil {
		err := r.grantErr
		r.grantErr = nil
		return err
	}
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.UnlockedProperties = append(u.UnlockedProperties, grant)
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func seedLandlord(t *testing.T, users *stubUserRepo) *domain.User {
	t.Helper()
	u := &domain.User{
		FullName:    "Grace Wanjiku",
		PhoneNumber: "0712345678",
		Role:        domain.RoleLandlord,
		IsActive:    true,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed landlord: %v", err)
	}
	return u
}

func seedTenant(t *testing.T, users *stubUserRepo) *domain.User {
	t.Helper()
	u := &domain.User{
		FullName:    "Brian Otieno",
		PhoneNumber: "0722000111",
		Role:        domain.RoleTenant,
		IsActive:    true,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return u
}

func minimalListing(overrides func(*ports.CreatePropertyInput)) ports.CreatePropertyInput {
	in := ports.CreatePropertyInput{
		Title:        "Cozy Studio",
		Description:  "Bright studio near the main road",
		Location:     "Ruaka",
		Area:         "Ndenderu",
		PropertyType: "studio",
		Price:        15000,
	}
	if overrides != nil {
		overrides(&in)
	}
	return in
}

func newPropertyService(t *testing.T) (*PropertyService, *stubPropertyRepo, *stubUserRepo) {
	t.Helper()
	props := newStubPropertyRepo()
	users := newStubUserRepo()
	return NewPropertyService(props, users, discardLogger), props, users
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestPropertyService_Create_Success(t *testing.T) {
	svc, props, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	p, err := svc.Create(context.Background(), owner, minimalListing(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if !p.IsActive {
		t.Error("new listings must be active")
	}
	if p.TitleNorm != "cozy studio" || p.LocationNorm != "ruaka" || p.AreaNorm != "ndenderu" {
		t.Errorf("normalised fields wrong: %q %q %q", p.TitleNorm, p.LocationNorm, p.AreaNorm)
	}
	// Contact defaults from the owner.
	if p.ContactPerson != owner.FullName || p.ContactPhone != owner.PhoneNumber {
		t.Errorf("contact defaults wrong: %q %q", p.ContactPerson, p.ContactPhone)
	}
	// Rules defaults.
	if !p.Rules.Children || p.Rules.Visitors != domain.VisitorsAllowed || p.Rules.DepositMonths != 1 {
		t.Errorf("rule defaults wrong: %+v", p.Rules)
	}
	// Owner's reference set updated.
	stored, _ := users.FindByID(context.Background(), owner.ID)
	if !containsString(stored.Properties, p.ID) {
		t.Error("listing not linked to owner")
	}
	if _, ok := props.byID[p.ID]; !ok {
		t.Error("listing not persisted")
	}
}

func TestPropertyService_Create_Duplicate(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	if _, err := svc.Create(context.Background(), owner, minimalListing(nil)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), owner, minimalListing(nil))
	if !errors.Is(err, domain.ErrDuplicateListing) {
		t.Errorf("expected ErrDuplicateListing, got %v", err)
	}

	// Case/whitespace variants collide too.
	_, err = svc.Create(context.Background(), owner, minimalListing(func(in *ports.CreatePropertyInput) {
		in.Title = "  cozy   STUDIO "
	}))
	if !errors.Is(err, domain.ErrDuplicateListing) {
		t.Errorf("expected ErrDuplicateListing for variant, got %v", err)
	}
}

func TestPropertyService_Create_DifferentLandlordsDoNotCollide(t *testing.T) {
	svc, _, users := newPropertyService(t)
	first := seedLandlord(t, users)
	second := &domain.User{FullName: "Peter Kamau", PhoneNumber: "0733999888", Role: domain.RoleAgent, IsActive: true}
	if err := users.Create(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Create(context.Background(), first, minimalListing(nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), second, minimalListing(nil)); err != nil {
		t.Errorf("same listing under another landlord must be allowed, got %v", err)
	}
}

func TestPropertyService_Create_Invalid(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	tenant := seedTenant(t, users)

	_, err := svc.Create(context.Background(), tenant, minimalListing(nil))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("tenant create: expected ErrForbidden, got %v", err)
	}

	_, err = svc.Create(context.Background(), owner, minimalListing(func(in *ports.CreatePropertyInput) {
		in.PropertyType = "mansion"
	}))
	if !errors.Is(err, domain.ErrInvalidPropertyType) {
		t.Errorf("expected ErrInvalidPropertyType, got %v", err)
	}

	_, err = svc.Create(context.Background(), owner, minimalListing(func(in *ports.CreatePropertyInput) {
		in.Price = -1
	}))
	if !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func seedListing(t *testing.T, svc *PropertyService, owner *domain.User, overrides func(*ports.CreatePropertyInput)) *domain.Property {
	t.Helper()
	p, err := svc.Create(context.Background(), owner, minimalListing(overrides))
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return p
}

func TestPropertyService_Search_PriceRange(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "A"; in.Price = 8000 })
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "B"; in.Price = 15000 })
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "C"; in.Price = 30000 })

	res, err := svc.Search(context.Background(), ports.SearchInput{MinPrice: "10000", MaxPrice: "20000"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 || res.Items[0].Price != 15000 {
		t.Errorf("expected only the 15000 listing, got total=%d", res.Pagination.Total)
	}

	// Omitting both bounds returns everything.
	res, err = svc.Search(context.Background(), ports.SearchInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 3 {
		t.Errorf("unfiltered: expected 3, got %d", res.Pagination.Total)
	}
}

func TestPropertyService_Search_MalformedNumericIgnored(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	seedListing(t, svc, owner, nil)

	res, err := svc.Search(context.Background(), ports.SearchInput{MinPrice: "cheap", MaxPrice: ""})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 {
		t.Errorf("malformed bound must be dropped, got total=%d", res.Pagination.Total)
	}
	if res.Applied.MinPrice != nil {
		t.Error("malformed minPrice must not be echoed as applied")
	}
}

func TestPropertyService_Search_AmenitiesAllMatch(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) {
		in.Title = "Full"
		in.Amenities = []string{"water", "electricity", "parking"}
	})
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) {
		in.Title = "Partial"
		in.Amenities = []string{"water"}
	})

	res, err := svc.Search(context.Background(), ports.SearchInput{Amenities: "water, electricity"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 || res.Items[0].Title != "Full" {
		t.Errorf("amenities must be all-match: %+v", res.Items)
	}
}

func TestPropertyService_Search_BooleanRuleFilters(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	pets := true
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) {
		in.Title = "Pets OK"
		in.Rules = &ports.RulesInput{Pets: &pets}
	})
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "No pets" })

	res, err := svc.Search(context.Background(), ports.SearchInput{Pets: "true"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 || res.Items[0].Title != "Pets OK" {
		t.Errorf("pets filter wrong: %+v", res.Items)
	}

	// Anything but the literal strings is ignored.
	res, _ = svc.Search(context.Background(), ports.SearchInput{Pets: "yes"})
	if res.Pagination.Total != 2 {
		t.Errorf("non-literal boolean must be ignored, got %d", res.Pagination.Total)
	}
}

func TestPropertyService_Search_PaginationMath(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	for i := 0; i < 5; i++ {
		n := i
		seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) {
			in.Title = fmt.Sprintf("Listing %d", n)
		})
	}

	res, err := svc.Search(context.Background(), ports.SearchInput{Page: "2", Limit: "2"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 5 || res.Pagination.Pages != 3 || res.Pagination.Page != 2 {
		t.Errorf("pagination wrong: %+v", res.Pagination)
	}
	if len(res.Items) != 2 {
		t.Errorf("expected 2 items on page 2, got %d", len(res.Items))
	}
}

func TestPropertyService_Search_Clamps(t *testing.T) {
	svc, _, _ := newPropertyService(t)

	res, err := svc.Search(context.Background(), ports.SearchInput{Page: "0", Limit: "999"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Page != 1 {
		t.Errorf("page must clamp to 1, got %d", res.Pagination.Page)
	}
	if res.Pagination.Limit != 50 {
		t.Errorf("limit must clamp to 50, got %d", res.Pagination.Limit)
	}

	res, _ = svc.Search(context.Background(), ports.SearchInput{Limit: "garbage"})
	if res.Pagination.Limit != 10 {
		t.Errorf("default limit must be 10, got %d", res.Pagination.Limit)
	}
	if res.Pagination.Pages != 1 {
		t.Errorf("pages floor must be 1, got %d", res.Pagination.Pages)
	}

	// Explicit negatives clamp to the range floor, not the default.
	res, _ = svc.Search(context.Background(), ports.SearchInput{Page: "-3", Limit: "-5"})
	if res.Pagination.Page != 1 || res.Pagination.Limit != 1 {
		t.Errorf("negative page/limit must clamp to 1, got page=%d limit=%d", res.Pagination.Page, res.Pagination.Limit)
	}
}

func TestPropertyService_Search_SortByPrice(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)

	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "Mid"; in.Price = 20000 })
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "Low"; in.Price = 10000 })
	seedListing(t, svc, owner, func(in *ports.CreatePropertyInput) { in.Title = "High"; in.Price = 30000 })

	res, err := svc.Search(context.Background(), ports.SearchInput{Sort: "price"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Items[0].Title != "Low" || res.Items[2].Title != "High" {
		t.Errorf("ascending price sort wrong: %v %v %v", res.Items[0].Title, res.Items[1].Title, res.Items[2].Title)
	}

	res, _ = svc.Search(context.Background(), ports.SearchInput{Sort: "-price"})
	if res.Items[0].Title != "High" {
		t.Errorf("descending price sort wrong: %v", res.Items[0].Title)
	}

	// Unknown sort fields are skipped; falls back to the default.
	if _, err := svc.Search(context.Background(), ports.SearchInput{Sort: "contactPhone"}); err != nil {
		t.Errorf("unknown sort field must not fail: %v", err)
	}
}

func TestPropertyService_Search_PrimaryImageDerived(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	if _, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/b.jpg", true); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Search(context.Background(), ports.SearchInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Items[0].PrimaryImage == nil || *res.Items[0].PrimaryImage != "https://img.example.com/b.jpg" {
		t.Errorf("expected derived primary image, got %v", res.Items[0].PrimaryImage)
	}
}

func TestPropertyService_Search_AppliedEcho(t *testing.T) {
	svc, _, _ := newPropertyService(t)

	res, err := svc.Search(context.Background(), ports.SearchInput{
		Location: "Ruaka",
		Pets:     "true",
		MinPrice: "10000",
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Applied.Location == nil || *res.Applied.Location != "Ruaka" {
		t.Errorf("location echo wrong: %v", res.Applied.Location)
	}
	if res.Applied.Pets == nil || *res.Applied.Pets != "true" {
		t.Errorf("pets echo wrong: %v", res.Applied.Pets)
	}
	if res.Applied.MinPrice == nil || *res.Applied.MinPrice != 10000 {
		t.Errorf("minPrice echo wrong: %v", res.Applied.MinPrice)
	}
	if res.Applied.Area != nil {
		t.Error("unused filters must echo as nil")
	}
	if res.Applied.Sort != "-createdAt" {
		t.Errorf("default sort echo wrong: %q", res.Applied.Sort)
	}
}

// ---------------------------------------------------------------------------
// Detail + visibility
// ---------------------------------------------------------------------------

func TestPropertyService_Get_PublicStripsContact(t *testing.T) {
	svc, props, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	detail, err := svc.Get(context.Background(), domain.Anonymous, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Visibility != ports.VisibilityPublic {
		t.Errorf("expected public, got %s", detail.Visibility)
	}
	if detail.Property.ContactPerson != "" || detail.Property.ContactPhone != "" {
		t.Error("public view must not carry contact fields")
	}
	// The stored document keeps its contact fields.
	if props.byID[p.ID].ContactPerson == "" {
		t.Error("projection must not mutate the stored document")
	}
	// Non-owner views are counted.
	if props.byID[p.ID].Views != 1 {
		t.Errorf("expected 1 view, got %d", props.byID[p.ID].Views)
	}
}

func TestPropertyService_Get_OwnerSeesEverything(t *testing.T) {
	svc, props, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	detail, err := svc.Get(context.Background(), domain.Viewer{User: owner}, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Visibility != ports.VisibilityOwner {
		t.Errorf("expected owner, got %s", detail.Visibility)
	}
	if detail.Property.ContactPerson == "" || detail.Property.ContactPhone == "" {
		t.Error("owner must see contact fields")
	}
	if props.byID[p.ID].Views != 0 {
		t.Error("owner views must not be counted")
	}
}

func TestPropertyService_Get_UnlockedTenantSeesContact(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	tenant := seedTenant(t, users)
	p := seedListing(t, svc, owner, nil)

	tenant.UnlockedProperties = []domain.UnlockGrant{{PropertyID: p.ID, TransactionID: "tx_1", UnlockedAt: time.Now()}}

	detail, err := svc.Get(context.Background(), domain.Viewer{User: tenant}, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Visibility != ports.VisibilityUnlocked {
		t.Errorf("expected unlocked, got %s", detail.Visibility)
	}
	if detail.Property.ContactPhone == "" {
		t.Error("unlocked tenant must see contact fields")
	}
}

func TestPropertyService_Get_InactiveIsNotFound(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Get(context.Background(), domain.Viewer{User: owner}, p.ID)
	if !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Errorf("soft-deleted listing must 404 even for the owner, got %v", err)
	}

	_, err = svc.Get(context.Background(), domain.Anonymous, "prop_missing")
	if !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Errorf("missing listing: expected ErrPropertyNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update / soft delete
// ---------------------------------------------------------------------------

func strPtr(s string) *string { return &s }

func TestPropertyService_Update_RecomputesNormalisedKey(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	updated, err := svc.Update(context.Background(), owner, p.ID, ports.UpdatePropertyInput{
		Title: strPtr("Sunny Bedsitter"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Sunny Bedsitter" || updated.TitleNorm != "sunny bedsitter" {
		t.Errorf("title/norm not updated: %q %q", updated.Title, updated.TitleNorm)
	}

	// The old normalised key is free again.
	if _, err := svc.Create(context.Background(), owner, minimalListing(nil)); err != nil {
		t.Errorf("old key must be reusable after update, got %v", err)
	}
}

func TestPropertyService_Update_NonOwnerForbidden(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	other := &domain.User{FullName: "Peter Kamau", PhoneNumber: "0733999888", Role: domain.RoleLandlord, IsActive: true}
	if err := users.Create(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	p := seedListing(t, svc, owner, nil)

	_, err := svc.Update(context.Background(), other, p.ID, ports.UpdatePropertyInput{Title: strPtr("Hijacked")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestPropertyService_Delete_SoftDeletes(t *testing.T) {
	svc, props, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatal(err)
	}

	// Document survives in storage but is invisible to the API.
	stored := props.byID[p.ID]
	if stored == nil || stored.IsActive {
		t.Fatal("expected stored document with isActive=false")
	}

	res, _ := svc.Search(context.Background(), ports.SearchInput{})
	if res.Pagination.Total != 0 {
		t.Error("soft-deleted listing must not appear in search")
	}

	u, _ := users.FindByID(context.Background(), owner.ID)
	if containsString(u.Properties, p.ID) {
		t.Error("owner's reference set must not keep the deleted listing")
	}

	if err := svc.Delete(context.Background(), owner, p.ID); !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Errorf("second delete must 404, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func TestPropertyService_AddImage_FirstBecomesPrimary(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	images, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || !images[0].IsPrimary {
		t.Errorf("first image must be primary regardless of the flag: %+v", images)
	}
	if images[0].ID == "" {
		t.Error("image must get an ID")
	}
}

func TestPropertyService_AddImage_PrimaryFlagDemotesOthers(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	_, _ = svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false)
	images, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/b.jpg", true)
	if err != nil {
		t.Fatal(err)
	}

	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
			if img.URL != "https://img.example.com/b.jpg" {
				t.Errorf("wrong primary: %s", img.URL)
			}
		}
	}
	if primaries != 1 {
		t.Errorf("expected exactly 1 primary, got %d", primaries)
	}
}

func TestPropertyService_AddImage_Rejections(t *testing.T) {
	svc, props, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	if _, err := svc.AddImage(context.Background(), owner, p.ID, "ftp://img.example.com/a.jpg", false); !errors.Is(err, domain.ErrInvalidImageURL) {
		t.Errorf("expected ErrInvalidImageURL, got %v", err)
	}
	if _, err := svc.AddImage(context.Background(), owner, p.ID, "not a url", false); !errors.Is(err, domain.ErrInvalidImageURL) {
		t.Errorf("expected ErrInvalidImageURL, got %v", err)
	}

	if _, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddImage(context.Background(), owner, p.ID, "HTTPS://IMG.example.com/A.JPG", false); !errors.Is(err, domain.ErrDuplicateImage) {
		t.Errorf("expected case-insensitive ErrDuplicateImage, got %v", err)
	}

	for i := 1; i < domain.MaxImagesPerProperty; i++ {
		url := fmt.Sprintf("https://img.example.com/%d.jpg", i)
		if _, err := svc.AddImage(context.Background(), owner, p.ID, url, false); err != nil {
			t.Fatalf("image %d: %v", i, err)
		}
	}

	_, err := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/extra.jpg", false)
	if !errors.Is(err, domain.ErrImageLimit) {
		t.Errorf("expected ErrImageLimit, got %v", err)
	}
	if got := len(props.byID[p.ID].Images); got != domain.MaxImagesPerProperty {
		t.Errorf("failed add must leave the list unchanged, got %d images", got)
	}
}

func TestPropertyService_SetPrimaryImage(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	_, _ = svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false)
	images, _ := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/b.jpg", false)

	updated, err := svc.SetPrimaryImage(context.Background(), owner, p.ID, images[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated[0].IsPrimary || !updated[1].IsPrimary {
		t.Errorf("primary flag not moved: %+v", updated)
	}

	if _, err := svc.SetPrimaryImage(context.Background(), owner, p.ID, "img_unknown"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got %v", err)
	}
}

func TestPropertyService_RemoveImage_PromotesReplacement(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	p := seedListing(t, svc, owner, nil)

	first, _ := svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/a.jpg", false)
	_, _ = svc.AddImage(context.Background(), owner, p.ID, "https://img.example.com/b.jpg", false)

	// Remove the primary; the remaining image must be promoted.
	images, err := svc.RemoveImage(context.Background(), owner, p.ID, first[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || !images[0].IsPrimary {
		t.Errorf("expected promoted survivor: %+v", images)
	}

	images, err = svc.RemoveImage(context.Background(), owner, p.ID, images[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 0 {
		t.Errorf("expected empty list, got %+v", images)
	}
}

// ---------------------------------------------------------------------------
// Favorites
// ---------------------------------------------------------------------------

func TestPropertyService_Favorites(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	tenant := seedTenant(t, users)
	p := seedListing(t, svc, owner, nil)

	if err := svc.AddFavorite(context.Background(), tenant, p.ID); err != nil {
		t.Fatal(err)
	}
	// Set semantics: adding twice keeps one entry.
	if err := svc.AddFavorite(context.Background(), tenant, p.ID); err != nil {
		t.Fatal(err)
	}

	fresh, _ := users.FindByID(context.Background(), tenant.ID)
	if len(fresh.Favorites) != 1 {
		t.Errorf("expected 1 favorite, got %d", len(fresh.Favorites))
	}

	res, err := svc.ListFavorites(context.Background(), fresh, ports.ListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 || res.Items[0].ID != p.ID {
		t.Errorf("favorites list wrong: %+v", res)
	}

	// Soft-deleted favorites disappear from the list.
	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatal(err)
	}
	res, _ = svc.ListFavorites(context.Background(), fresh, ports.ListInput{})
	if res.Pagination.Total != 0 {
		t.Error("inactive favorite must not be listed")
	}

	// Removing is idempotent.
	if err := svc.RemoveFavorite(context.Background(), tenant, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveFavorite(context.Background(), tenant, p.ID); err != nil {
		t.Errorf("second remove must succeed, got %v", err)
	}
}

func TestPropertyService_Favorites_AddInactive(t *testing.T) {
	svc, _, users := newPropertyService(t)
	owner := seedLandlord(t, users)
	tenant := seedTenant(t, users)
	p := seedListing(t, svc, owner, nil)

	if err := svc.Delete(context.Background(), owner, p.ID); err != nil {
		t.Fatal(err)
	}

	err := svc.AddFavorite(context.Background(), tenant, p.ID)
	if !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Errorf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestPropertyService_ListFavorites_Empty(t *testing.T) {
	svc, _, users := newPropertyService(t)
	tenant := seedTenant(t, users)

	res, err := svc.ListFavorites(context.Background(), tenant, ports.ListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 0 || res.Pagination.Pages != 1 || res.Pagination.Total != 0 {
		t.Errorf("empty favorites must page cleanly: %+v", res.Pagination)
	}
}

// ---------------------------------------------------------------------------
// ListMine
// ---------------------------------------------------------------------------

func TestPropertyService_ListMine_ScopedToOwner(t *testing.T) {
	svc, _, users := newPropertyService(t)
	first := seedLandlord(t, users)
	second := &domain.User{FullName: "Peter Kamau", PhoneNumber: "0733999888", Role: domain.RoleAgent, IsActive: true}
	if err := users.Create(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	seedListing(t, svc, first, nil)
	seedListing(t, svc, second, func(in *ports.CreatePropertyInput) { in.Title = "Other Unit" })

	res, err := svc.ListMine(context.Background(), first, ports.ListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pagination.Total != 1 || res.Items[0].Title != "Cozy Studio" {
		t.Errorf("owner list wrong: %+v", res.Items)
	}
}
