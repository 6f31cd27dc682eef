package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

// UnlockGuard serialises concurrent unlock attempts for the same (tenant,
// property) pair. Acquire returns false when another attempt holds the slot.
type UnlockGuard interface {
	Acquire(ctx context.Context, tenantID, propertyID string) (bool, error)
	Release(ctx context.Context, tenantID, propertyID string) error
}

// UnlockService runs the contact-unlock workflow: pending transaction,
// stubbed payment, grant, counters. Replays are idempotent at four levels:
// the tenant's grant set, the completed-transaction ledger, the guard, and
// the storage uniqueness constraint on completed transactions.
type UnlockService struct {
	properties   ports.PropertyRepository
	users        ports.UserRepository
	transactions ports.TransactionRepository
	guard        UnlockGuard
	fee          float64
	logger       zerolog.Logger
}

func NewUnlockService(
	properties ports.PropertyRepository,
	users ports.UserRepository,
	transactions ports.TransactionRepository,
	guard UnlockGuard,
	fee float64,
	logger zerolog.Logger,
) *UnlockService {
	return &UnlockService{
		properties:   properties,
		users:        users,
		transactions: transactions,
		guard:        guard,
		fee:          fee,
		logger:       logger,
	}
}

func (s *UnlockService) Unlock(ctx context.Context, tenant *domain.User, propertyID string) (*ports.UnlockResult, error) {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsActive {
		return nil, domain.ErrPropertyNotFound
	}
	if tenant.Role != domain.RoleTenant {
		return nil, domain.ErrForbidden
	}

	// Replay: an existing grant returns the original transaction without
	// side effects.
	if grant := tenant.Unlocked(propertyID); grant != nil {
		s.logger.Info().Str("tenant_id", tenant.ID).Str("property_id", propertyID).Msg("unlock replay")
		return &ports.UnlockResult{
			TransactionID:   grant.TransactionID,
			Amount:          s.fee,
			Status:          domain.TxCompleted,
			UnlockedAt:      grant.UnlockedAt,
			AlreadyUnlocked: true,
			ContactPerson:   property.ContactPerson,
			ContactPhone:    property.ContactPhone,
		}, nil
	}

	// The grant set is a read-optimised copy; the ledger is the source of
	// truth. A completed transaction without a grant (an earlier grant write
	// failed) replays from the ledger and repairs the grant, so a paid tenant
	// is never locked out.
	if prior, err := s.transactions.FindCompleted(ctx, tenant.ID, propertyID); err == nil {
		s.logger.Info().Str("tenant_id", tenant.ID).Str("property_id", propertyID).Str("transaction_id", prior.ID).Msg("unlock replay from ledger")
		s.repairGrant(ctx, tenant.ID, prior)
		return replayResult(prior, property), nil
	} else if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}

	acquired, err := s.guard.Acquire(ctx, tenant.ID, propertyID)
	if err != nil {
		s.logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("unlock guard unavailable, proceeding")
	} else if !acquired {
		return nil, domain.ErrUnlockInProgress
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		TenantID:         tenant.ID,
		PropertyID:       propertyID,
		LandlordID:       property.LandlordID,
		Amount:           s.fee,
		Status:           domain.TxPending,
		PaymentReference: paymentReference(),
		PaymentPhone:     tenant.PhoneNumber,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.releaseGuard(ctx, tenant.ID, propertyID)
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	// Payment confirmation is stubbed: the provider callback is simulated
	// as an immediate success.
	receipt := paymentReceipt()
	if err := s.transactions.MarkCompleted(ctx, tx.ID, receipt, now); err != nil {
		s.releaseGuard(ctx, tenant.ID, propertyID)
		if failErr := s.transactions.MarkFailed(ctx, tx.ID, err.Error()); failErr != nil {
			s.logger.Warn().Err(failErr).Str("transaction_id", tx.ID).Msg("failed to mark transaction failed")
		}
		// A uniqueness conflict means a concurrent request won the pair;
		// hand its completed transaction back instead of failing the tenant.
		if errors.Is(err, domain.ErrAlreadyUnlocked) {
			if prior, findErr := s.transactions.FindCompleted(ctx, tenant.ID, propertyID); findErr == nil {
				s.repairGrant(ctx, tenant.ID, prior)
				return replayResult(prior, property), nil
			}
		}
		return nil, err
	}
	tx.Status = domain.TxCompleted
	tx.PaymentReceipt = receipt
	tx.CompletedAt = &now

	grant := domain.UnlockGrant{PropertyID: propertyID, UnlockedAt: now, TransactionID: tx.ID}
	if err := s.users.AddUnlockGrant(ctx, tenant.ID, grant); err != nil {
		// The completed transaction is the source of truth; the grant set
		// is a read-optimised copy, so log and continue.
		s.logger.Error().Err(err).Str("tenant_id", tenant.ID).Str("property_id", propertyID).Msg("failed to record unlock grant")
	}
	if err := s.properties.IncrementUnlocks(ctx, propertyID); err != nil {
		s.logger.Warn().Err(err).Str("property_id", propertyID).Msg("failed to count unlock")
	}

	s.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("property_id", propertyID).
		Str("transaction_id", tx.ID).
		Msg("property unlocked")

	return &ports.UnlockResult{
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		Status:        tx.Status,
		UnlockedAt:    now,
		ContactPerson: property.ContactPerson,
		ContactPhone:  property.ContactPhone,
	}, nil
}

// repairGrant writes the grant a completed transaction is missing from the
// tenant's grant set.
func (s *UnlockService) repairGrant(ctx context.Context, tenantID string, tx *domain.Transaction) {
	grant := domain.UnlockGrant{PropertyID: tx.PropertyID, UnlockedAt: completedAt(tx), TransactionID: tx.ID}
	if err := s.users.AddUnlockGrant(ctx, tenantID, grant); err != nil {
		s.logger.Warn().Err(err).Str("tenant_id", tenantID).Str("transaction_id", tx.ID).Msg("failed to repair unlock grant")
	}
}

func replayResult(tx *domain.Transaction, property *domain.Property) *ports.UnlockResult {
	return &ports.UnlockResult{
		TransactionID:   tx.ID,
		Amount:          tx.Amount,
		Status:          domain.TxCompleted,
		UnlockedAt:      completedAt(tx),
		AlreadyUnlocked: true,
		ContactPerson:   property.ContactPerson,
		ContactPhone:    property.ContactPhone,
	}
}

func completedAt(tx *domain.Transaction) time.Time {
	if tx.CompletedAt != nil {
		return *tx.CompletedAt
	}
	return tx.UpdatedAt
}

func (s *UnlockService) releaseGuard(ctx context.Context, tenantID, propertyID string) {
	if err := s.guard.Release(ctx, tenantID, propertyID); err != nil {
		s.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("failed to release unlock guard")
	}
}

func paymentReference() string {
	return "REF-" + randomToken(8)
}

func paymentReceipt() string {
	return "RCT-" + randomToken(12)
}

func randomToken(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(s[:n])
}
