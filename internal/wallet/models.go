package wallet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a player's funds for one tenant. AvailableBalance is
// withdrawable; BonusBalance is locked until wagering converts it.
type Wallet struct {
	WalletID         string          `gorm:"column:wallet_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	UserID           string          `gorm:"column:user_id;type:uuid;not null;index:idx_wallet_user_tenant,unique"`
	TenantID         string          `gorm:"column:tenant_id;type:varchar(50);not null;index:idx_wallet_user_tenant,unique"`
	Currency         string          `gorm:"column:currency;type:varchar(3);not null;default:'USD'"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(20,2);not null;default:0"`
	BonusBalance     decimal.Decimal `gorm:"column:bonus_balance;type:numeric(20,2);not null;default:0"`
	Version          int             `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null;default:now()"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Transaction is the immutable audit record written with every balance
// mutation. Before/after snapshots cover both balance components.
type Transaction struct {
	TransactionID   string          `gorm:"column:transaction_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	WalletID        string          `gorm:"column:wallet_id;type:uuid;not null"`
	UserID          string          `gorm:"column:user_id;type:uuid;not null"`
	TenantID        string          `gorm:"column:tenant_id;type:varchar(50);not null"`
	TransactionType string          `gorm:"column:transaction_type;type:varchar(30);not null"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null"`
	AvailableBefore decimal.Decimal `gorm:"column:available_before;type:numeric(20,2);not null"`
	AvailableAfter  decimal.Decimal `gorm:"column:available_after;type:numeric(20,2);not null"`
	BonusBefore     decimal.Decimal `gorm:"column:bonus_before;type:numeric(20,2);not null"`
	BonusAfter      decimal.Decimal `gorm:"column:bonus_after;type:numeric(20,2);not null"`
	ReferenceID     string          `gorm:"column:reference_id;type:varchar(255);not null"` // bonus id or external ref
	Status          string          `gorm:"column:status;type:varchar(20);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;not null;default:now()"`
}

func (Transaction) TableName() string {
	return "wallet_transactions"
}

const (
	TxDeposit         = "deposit"
	TxBonusCredit     = "bonus_credit"
	TxBonusConversion = "bonus_conversion"
	TxBonusClawback   = "bonus_clawback"
	TxFreeBetStake    = "free_bet_stake"
	TxCashbackCredit  = "cashback_credit"
	TxManualBonus     = "manual_bonus"
)

// LedgerEntry records the double-entry side of a transaction: the system
// bonus reserve account against the player's wallet sub-accounts.
type LedgerEntry struct {
	LedgerID      string          `gorm:"column:ledger_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	TransactionID string          `gorm:"column:transaction_id;type:uuid;not null;index"`
	DebitAccount  string          `gorm:"column:debit_account;type:varchar(100);not null"`
	CreditAccount string          `gorm:"column:credit_account;type:varchar(100);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

const AccountBonusReserve = "bonus_reserve"

func BonusAccount(walletID string) string {
	return fmt.Sprintf("wallet:%s:bonus", walletID)
}

func AvailableAccount(walletID string) string {
	return fmt.Sprintf("wallet:%s:available", walletID)
}
