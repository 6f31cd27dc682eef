package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

const collectionProperties = "properties"

// sortFieldKeys maps the API sort vocabulary onto document keys.
var sortFieldKeys = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"price":        "price",
	"views":        "views",
	"totalUnlocks": "total_unlocks",
	"title":        "title",
}

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection(collectionProperties)}
}

type imageDoc struct {
	ID        string `bson:"id"`
	URL       string `bson:"url"`
	IsPrimary bool   `bson:"is_primary"`
}

type rulesDoc struct {
	Pets          bool   `bson:"pets"`
	Children      bool   `bson:"children"`
	Visitors      string `bson:"visitors"`
	DepositMonths int    `bson:"deposit_months"`
}

type propertyDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	LandlordID   string             `bson:"landlord_id"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Location     string             `bson:"location"`
	Area         string             `bson:"area,omitempty"`
	Nearby       []string           `bson:"nearby,omitempty"`
	PropertyType string             `bson:"property_type"`
	Price        float64            `bson:"price"`
	Images       []imageDoc         `bson:"images"`
	Amenities    []string           `bson:"amenities,omitempty"`
	Rules        rulesDoc           `bson:"rules"`

	ContactPerson string `bson:"contact_person"`
	ContactPhone  string `bson:"contact_phone"`

	TitleNorm    string `bson:"title_norm"`
	LocationNorm string `bson:"location_norm"`
	AreaNorm     string `bson:"area_norm"`

	IsActive     bool  `bson:"is_active"`
	IsVerified   bool  `bson:"is_verified"`
	Views        int64 `bson:"views"`
	TotalUnlocks int64 `bson:"total_unlocks"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toPropertyDoc(p *domain.Property) propertyDoc {
	doc := propertyDoc{
		LandlordID:    p.LandlordID,
		Title:         p.Title,
		Description:   p.Description,
		Location:      p.Location,
		Area:          p.Area,
		Nearby:        p.Nearby,
		PropertyType:  string(p.Type),
		Price:         p.Price,
		Amenities:     p.Amenities,
		Rules:         rulesDoc(p.Rules),
		ContactPerson: p.ContactPerson,
		ContactPhone:  p.ContactPhone,
		TitleNorm:     p.TitleNorm,
		LocationNorm:  p.LocationNorm,
		AreaNorm:      p.AreaNorm,
		IsActive:      p.IsActive,
		IsVerified:    p.IsVerified,
		Views:         p.Views,
		TotalUnlocks:  p.TotalUnlocks,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	doc.Images = make([]imageDoc, 0, len(p.Images))
	for _, img := range p.Images {
		doc.Images = append(doc.Images, imageDoc(img))
	}
	return doc
}

func (d *propertyDoc) toDomain() *domain.Property {
	p := &domain.Property{
		ID:            d.ID.Hex(),
		LandlordID:    d.LandlordID,
		Title:         d.Title,
		Description:   d.Description,
		Location:      d.Location,
		Area:          d.Area,
		Nearby:        d.Nearby,
		Type:          domain.PropertyType(d.PropertyType),
		Price:         d.Price,
		Amenities:     d.Amenities,
		Rules:         domain.Rules(d.Rules),
		ContactPerson: d.ContactPerson,
		ContactPhone:  d.ContactPhone,
		TitleNorm:     d.TitleNorm,
		LocationNorm:  d.LocationNorm,
		AreaNorm:      d.AreaNorm,
		IsActive:      d.IsActive,
		IsVerified:    d.IsVerified,
		Views:         d.Views,
		TotalUnlocks:  d.TotalUnlocks,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, domain.Image(img))
	}
	return p
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toPropertyDoc(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateListing
		}
		return fmt.Errorf("insert property: %w", err)
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *PropertyRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPropertyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc propertyDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return domain.ErrPropertyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toPropertyDoc(p)
	doc.ID = oid

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateListing
		}
		return fmt.Errorf("update property: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPropertyNotFound
	}
	return nil
}

// summaryDoc is the projected list row produced by the search pipeline.
type summaryDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Location     string             `bson:"location"`
	Area         string             `bson:"area"`
	Nearby       []string           `bson:"nearby"`
	PropertyType string             `bson:"property_type"`
	Price        float64            `bson:"price"`
	Amenities    []string           `bson:"amenities"`
	Rules        rulesDoc           `bson:"rules"`
	PrimaryImage *string            `bson:"primary_image"`
	IsVerified   bool               `bson:"is_verified"`
	Views        int64              `bson:"views"`
	TotalUnlocks int64              `bson:"total_unlocks"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Search runs the filtered list query as an aggregation: match, sort, page,
// then derive primary_image and strip the contact and image fields so list
// rows can never leak paid content.
func (r *PropertyRepository) Search(ctx context.Context, f ports.SearchFilter) ([]ports.PropertySummary, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match := searchMatch(f)

	total, err := r.col.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: sortDoc(f.Sort)}},
		bson.D{{Key: "$skip", Value: (f.Page - 1) * f.Limit}},
		bson.D{{Key: "$limit", Value: f.Limit}},
		bson.D{{Key: "$addFields", Value: bson.M{"primary_image": primaryImageExpr()}}},
		bson.D{{Key: "$project", Value: bson.M{
			"contact_person": 0,
			"contact_phone":  0,
			"images":         0,
			"title_norm":     0,
			"location_norm":  0,
			"area_norm":      0,
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("search properties: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []ports.PropertySummary{}
	for cursor.Next(ctx) {
		var doc summaryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode summary: %w", err)
		}
		summaries = append(summaries, ports.PropertySummary{
			ID:           doc.ID.Hex(),
			Title:        doc.Title,
			Description:  doc.Description,
			Location:     doc.Location,
			Area:         doc.Area,
			Nearby:       doc.Nearby,
			PropertyType: doc.PropertyType,
			Price:        doc.Price,
			Amenities:    doc.Amenities,
			Rules:        domain.Rules(doc.Rules),
			PrimaryImage: doc.PrimaryImage,
			IsVerified:   doc.IsVerified,
			Views:        doc.Views,
			TotalUnlocks: doc.TotalUnlocks,
			CreatedAt:    doc.CreatedAt,
			UpdatedAt:    doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("search cursor: %w", err)
	}

	return summaries, total, nil
}

func searchMatch(f ports.SearchFilter) bson.M {
	match := bson.M{"is_active": true}

	if f.Query != "" {
		match["$text"] = bson.M{"$search": f.Query}
	}
	if f.Location != "" {
		match["location"] = bson.M{"$regex": regexp.QuoteMeta(f.Location), "$options": "i"}
	}
	if f.Area != "" {
		match["area"] = bson.M{"$regex": regexp.QuoteMeta(f.Area), "$options": "i"}
	}
	if f.PropertyType != "" {
		match["property_type"] = f.PropertyType
	}
	if len(f.Amenities) > 0 {
		match["amenities"] = bson.M{"$all": f.Amenities}
	}
	if f.Pets != nil {
		match["rules.pets"] = *f.Pets
	}
	if f.Children != nil {
		match["rules.children"] = *f.Children
	}
	if f.Visitors != "" {
		match["rules.visitors"] = f.Visitors
	}
	if bounds := rangeBounds(f.MinDeposit, f.MaxDeposit); bounds != nil {
		match["rules.deposit_months"] = bounds
	}
	if bounds := rangeBounds(f.MinPrice, f.MaxPrice); bounds != nil {
		match["price"] = bounds
	}
	if f.LandlordID != "" {
		match["landlord_id"] = f.LandlordID
	}
	if f.IDs != nil {
		ids := make([]primitive.ObjectID, 0, len(f.IDs))
		for _, id := range f.IDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				ids = append(ids, oid)
			}
		}
		match["_id"] = bson.M{"$in": ids}
	}

	return match
}

func rangeBounds(min, max *float64) bson.M {
	bounds := bson.M{}
	if min != nil {
		bounds["$gte"] = *min
	}
	if max != nil {
		bounds["$lte"] = *max
	}
	if len(bounds) == 0 {
		return nil
	}
	return bounds
}

func sortDoc(spec []ports.SortField) bson.D {
	doc := bson.D{}
	for _, sf := range spec {
		key, ok := sortFieldKeys[sf.Field]
		if !ok {
			continue
		}
		dir := 1
		if sf.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: key, Value: dir})
	}
	if len(doc) == 0 {
		doc = bson.D{{Key: "created_at", Value: -1}}
	}
	return doc
}

// primaryImageExpr resolves the representative thumbnail inside the pipeline:
// the URL of the image flagged is_primary, else the first image's URL, else
// null.
func primaryImageExpr() bson.M {
	images := bson.M{"$ifNull": bson.A{"$images", bson.A{}}}
	flagged := bson.M{"$filter": bson.M{
		"input": images,
		"as":    "img",
		"cond":  "$$img.is_primary",
	}}
	return bson.M{"$let": bson.M{
		"vars": bson.M{"flagged": flagged},
		"in": bson.M{"$ifNull": bson.A{
			bson.M{"$first": "$$flagged.url"},
			bson.M{"$first": "$images.url"},
		}},
	}}
}

func (r *PropertyRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "views")
}

func (r *PropertyRepository) IncrementUnlocks(ctx context.Context, id string) error {
	return r.increment(ctx, id, "total_unlocks")
}

func (r *PropertyRepository) increment(ctx context.Context, id, field string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPropertyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.UpdateByID(ctx, oid, bson.M{"$inc": bson.M{field: 1}})
	return err
}

// EnsureIndexes creates the per-landlord duplicate-listing constraint, the
// text index backing the q= filter, and the common list-query indexes.
func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "landlord_id", Value: 1},
				{Key: "title_norm", Value: 1},
				{Key: "location_norm", Value: 1},
				{Key: "area_norm", Value: 1},
				{Key: "price", Value: 1},
				{Key: "property_type", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_listing"),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName("listing_text"),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "landlord_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
