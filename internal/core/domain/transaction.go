package domain

import (
	"errors"
	"time"
)

// TransactionStatus is the lifecycle state of an unlock payment.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxRefunded  TransactionStatus = "refunded"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyUnlocked     = errors.New("property already unlocked")
	ErrUnlockInProgress    = errors.New("unlock already in progress")
)

// Transaction records one unlock attempt linking tenant, property and
// landlord. A completed transaction is immutable.
type Transaction struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenantId"`
	PropertyID string  `json:"propertyId"`
	LandlordID string  `json:"landlordId"`
	Amount     float64 `json:"amount"`

	Status TransactionStatus `json:"status"`

	// Payment-provider fields. The provider integration is stubbed; the
	// reference is generated locally and the receipt on synthetic success.
	PaymentReference string `json:"paymentReference,omitempty"`
	PaymentPhone     string `json:"paymentPhone,omitempty"`
	PaymentReceipt   string `json:"paymentReceipt,omitempty"`

	FailureReason string     `json:"failureReason,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
