package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
)

const collectionTransactions = "transactions"

type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection(collectionTransactions)}
}

type transactionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TenantID   string             `bson:"tenant_id"`
	PropertyID string             `bson:"property_id"`
	LandlordID string             `bson:"landlord_id"`
	Amount     float64            `bson:"amount"`
	Status     string             `bson:"status"`

	PaymentReference string `bson:"payment_reference,omitempty"`
	PaymentPhone     string `bson:"payment_phone,omitempty"`
	PaymentReceipt   string `bson:"payment_receipt,omitempty"`

	FailureReason string     `bson:"failure_reason,omitempty"`
	CompletedAt   *time.Time `bson:"completed_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func (d *transactionDoc) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:               d.ID.Hex(),
		TenantID:         d.TenantID,
		PropertyID:       d.PropertyID,
		LandlordID:       d.LandlordID,
		Amount:           d.Amount,
		Status:           domain.TransactionStatus(d.Status),
		PaymentReference: d.PaymentReference,
		PaymentPhone:     d.PaymentPhone,
		PaymentReceipt:   d.PaymentReceipt,
		FailureReason:    d.FailureReason,
		CompletedAt:      d.CompletedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := transactionDoc{
		TenantID:         tx.TenantID,
		PropertyID:       tx.PropertyID,
		LandlordID:       tx.LandlordID,
		Amount:           tx.Amount,
		Status:           string(tx.Status),
		PaymentReference: tx.PaymentReference,
		PaymentPhone:     tx.PaymentPhone,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	tx.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// MarkCompleted flips a pending transaction to completed. The partial unique
// index admits one completed transaction per (tenant, property); the losing
// writer of a race gets domain.ErrAlreadyUnlocked.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, id, receipt string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTransactionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":          string(domain.TxCompleted),
		"payment_receipt": receipt,
		"completed_at":    at,
		"updated_at":      at,
	}}

	res, err := r.col.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyUnlocked
		}
		return fmt.Errorf("complete transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) MarkFailed(ctx context.Context, id, reason string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTransactionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":         string(domain.TxFailed),
		"failure_reason": reason,
		"updated_at":     time.Now().UTC(),
	}}

	res, err := r.col.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("fail transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) FindCompleted(ctx context.Context, tenantID, propertyID string) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"tenant_id":   tenantID,
		"property_id": propertyID,
		"status":      string(domain.TxCompleted),
	}

	var doc transactionDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the one-completed-unlock-per-pair constraint plus the
// lookup index used by replay checks.
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "property_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_completed_unlock").
				SetPartialFilterExpression(bson.M{"status": string(domain.TxCompleted)}),
		},
		{Keys: bson.D{{Key: "landlord_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
