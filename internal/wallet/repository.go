package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bonus_service/internal/db"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientBonus = errors.New("insufficient bonus balance")
	ErrOptimisticLock    = errors.New("optimistic lock error")
)

// WalletRepository mutates wallet balances. The balance-moving methods fill
// in the transaction's before/after snapshots and persist the transaction
// plus its ledger entry alongside the balance update. Callers are expected
// to invoke them inside an enclosing database transaction.
type WalletRepository interface {
	GetByUserTenant(ctx context.Context, userID, tenantID string) (*Wallet, error)
	CreateWallet(ctx context.Context, userID, tenantID, currency string) (*Wallet, error)
	// CreditBonus adds t.Amount to the bonus balance.
	CreditBonus(ctx context.Context, t *Transaction) error
	// DebitBonus removes up to t.Amount from the bonus balance, flooring at
	// zero; t.Amount is rewritten to the amount actually removed.
	DebitBonus(ctx context.Context, t *Transaction) error
	// ConvertBonus moves t.Amount from bonus balance to available balance.
	ConvertBonus(ctx context.Context, t *Transaction) error
	// CountCompletedDeposits reports how many completed deposits the user
	// has made; the payments pipeline writes those transactions.
	CountCompletedDeposits(ctx context.Context, userID, tenantID string) (int64, error)
}

type WalletRepositoryImpl struct {
	db *gorm.DB
}

func NewWalletRepository(conn *gorm.DB) *WalletRepositoryImpl {
	return &WalletRepositoryImpl{db: conn}
}

func (r *WalletRepositoryImpl) GetByUserTenant(ctx context.Context, userID, tenantID string) (*Wallet, error) {
	var w Wallet
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&w).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

func (r *WalletRepositoryImpl) CreateWallet(ctx context.Context, userID, tenantID, currency string) (*Wallet, error) {
	w := Wallet{
		WalletID: uuid.New().String(),
		UserID:   userID,
		TenantID: tenantID,
		Currency: currency,
	}

	if err := db.From(ctx, r.db).WithContext(ctx).Create(&w).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &w, nil
}

func (r *WalletRepositoryImpl) CreditBonus(ctx context.Context, t *Transaction) error {
	return r.apply(ctx, t, func(w *Wallet) (decimal.Decimal, decimal.Decimal, *LedgerEntry, error) {
		newBonus := w.BonusBalance.Add(t.Amount)
		entry := &LedgerEntry{
			DebitAccount:  AccountBonusReserve,
			CreditAccount: BonusAccount(w.WalletID),
			Amount:        t.Amount,
		}
		return w.AvailableBalance, newBonus, entry, nil
	})
}

func (r *WalletRepositoryImpl) DebitBonus(ctx context.Context, t *Transaction) error {
	return r.apply(ctx, t, func(w *Wallet) (decimal.Decimal, decimal.Decimal, *LedgerEntry, error) {
		actual := t.Amount
		if actual.GreaterThan(w.BonusBalance) {
			actual = w.BonusBalance
		}
		t.Amount = actual
		entry := &LedgerEntry{
			DebitAccount:  BonusAccount(w.WalletID),
			CreditAccount: AccountBonusReserve,
			Amount:        actual,
		}
		return w.AvailableBalance, w.BonusBalance.Sub(actual), entry, nil
	})
}

func (r *WalletRepositoryImpl) ConvertBonus(ctx context.Context, t *Transaction) error {
	return r.apply(ctx, t, func(w *Wallet) (decimal.Decimal, decimal.Decimal, *LedgerEntry, error) {
		if t.Amount.GreaterThan(w.BonusBalance) {
			return decimal.Zero, decimal.Zero, nil, ErrInsufficientBonus
		}
		entry := &LedgerEntry{
			DebitAccount:  BonusAccount(w.WalletID),
			CreditAccount: AvailableAccount(w.WalletID),
			Amount:        t.Amount,
		}
		return w.AvailableBalance.Add(t.Amount), w.BonusBalance.Sub(t.Amount), entry, nil
	})
}

func (r *WalletRepositoryImpl) CountCompletedDeposits(ctx context.Context, userID, tenantID string) (int64, error) {
	var count int64
	err := db.From(ctx, r.db).WithContext(ctx).
		Model(&Transaction{}).
		Where("user_id = ? AND tenant_id = ? AND transaction_type = ? AND status = ?",
			userID, tenantID, TxDeposit, "completed").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return count, nil
}

// apply locks the wallet row, computes the new balances, and persists the
// wallet update together with the transaction and ledger rows.
func (r *WalletRepositoryImpl) apply(ctx context.Context, t *Transaction, mutate func(w *Wallet) (decimal.Decimal, decimal.Decimal, *LedgerEntry, error)) error {
	conn := db.From(ctx, r.db).WithContext(ctx)

	var w Wallet
	err := conn.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet_id = ?", t.WalletID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to lock wallet: %w", err)
	}

	newAvailable, newBonus, entry, err := mutate(&w)
	if err != nil {
		return err
	}

	result := conn.Model(&Wallet{}).
		Where("wallet_id = ? AND version = ?", w.WalletID, w.Version).
		Updates(map[string]interface{}{
			"available_balance": newAvailable,
			"bonus_balance":     newBonus,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	t.TransactionID = uuid.New().String()
	t.AvailableBefore = w.AvailableBalance
	t.AvailableAfter = newAvailable
	t.BonusBefore = w.BonusBalance
	t.BonusAfter = newBonus
	t.Status = "completed"
	t.CreatedAt = time.Now()

	if err := conn.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	entry.LedgerID = uuid.New().String()
	entry.TransactionID = t.TransactionID
	entry.CreatedAt = t.CreatedAt
	if err := conn.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}
