package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type grantDoc struct {
	PropertyID    string    `bson:"property_id"`
	UnlockedAt    time.Time `bson:"unlocked_at"`
	TransactionID string    `bson:"transaction_id"`
}

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	FullName    string             `bson:"full_name"`
	PhoneNumber string             `bson:"phone_number"`
	Email       string             `bson:"email,omitempty"`
	IDNumber    string             `bson:"id_number,omitempty"`
	Role        string             `bson:"role"`
	IsVerified  bool               `bson:"is_verified"`
	IsActive    bool               `bson:"is_active"`

	Properties         []string   `bson:"properties,omitempty"`
	Favorites          []string   `bson:"favorites,omitempty"`
	UnlockedProperties []grantDoc `bson:"unlocked_properties,omitempty"`

	LastLogin *time.Time `bson:"last_login,omitempty"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:          d.ID.Hex(),
		FullName:    d.FullName,
		PhoneNumber: d.PhoneNumber,
		Email:       d.Email,
		IDNumber:    d.IDNumber,
		Role:        domain.UserRole(d.Role),
		IsVerified:  d.IsVerified,
		IsActive:    d.IsActive,
		Properties:  d.Properties,
		Favorites:   d.Favorites,
		LastLogin:   d.LastLogin,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, g := range d.UnlockedProperties {
		u.UnlockedProperties = append(u.UnlockedProperties, domain.UnlockGrant{
			PropertyID:    g.PropertyID,
			UnlockedAt:    g.UnlockedAt,
			TransactionID: g.TransactionID,
		})
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		IDNumber:    u.IDNumber,
		Role:        string(u.Role),
		IsVerified:  u.IsVerified,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Two unique indexes live on this collection; the index name in
			// the error tells them apart.
			if strings.Contains(err.Error(), "email") {
				return domain.ErrEmailInUse
			}
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, bson.M{"phone_number": phoneNumber}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"email": email}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}

	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count emails: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, fullName, email string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"full_name":  fullName,
		"email":      email,
		"updated_at": time.Now().UTC(),
	}}

	var doc userDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailInUse
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"last_login": at}})
	return err
}

func (r *UserRepository) AddProperty(ctx context.Context, userID, propertyID string) error {
	return r.updateSet(ctx, userID, bson.M{"$addToSet": bson.M{"properties": propertyID}})
}

func (r *UserRepository) RemoveProperty(ctx context.Context, userID, propertyID string) error {
	return r.updateSet(ctx, userID, bson.M{"$pull": bson.M{"properties": propertyID}})
}

func (r *UserRepository) AddFavorite(ctx context.Context, userID, propertyID string) error {
	return r.updateSet(ctx, userID, bson.M{"$addToSet": bson.M{"favorites": propertyID}})
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, propertyID string) error {
	return r.updateSet(ctx, userID, bson.M{"$pull": bson.M{"favorites": propertyID}})
}

func (r *UserRepository) AddUnlockGrant(ctx context.Context, userID string, grant domain.UnlockGrant) error {
	doc := grantDoc{
		PropertyID:    grant.PropertyID,
		UnlockedAt:    grant.UnlockedAt,
		TransactionID: grant.TransactionID,
	}
	return r.updateSet(ctx, userID, bson.M{"$push": bson.M{"unlocked_properties": doc}})
}

func (r *UserRepository) updateSet(ctx context.Context, userID string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the uniqueness constraints on the users collection.
// The email index is sparse so accounts without an email never collide.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_phone_number"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("unique_email"),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
