package bonus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bonus_service/internal/template"
	"bonus_service/internal/user"
	"bonus_service/internal/wallet"
)

// In-memory fakes backing the engine tests. They mirror the repository
// contracts closely enough that the engine cannot tell them from the gorm
// implementations.

type memTx struct{}

func (memTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBonusRepo struct {
	bonuses    []*PlayerBonus
	history    []HistoryEntry
	events     []WagerEvent
	historySeq int64
}

func (r *memBonusRepo) Create(_ context.Context, b *PlayerBonus) error {
	r.bonuses = append(r.bonuses, b)
	return nil
}

func (r *memBonusRepo) GetByID(_ context.Context, bonusID string) (*PlayerBonus, error) {
	for _, b := range r.bonuses {
		if b.PlayerBonusID == bonusID {
			return b, nil
		}
	}
	return nil, ErrBonusNotFound
}

func (r *memBonusRepo) Update(_ context.Context, b *PlayerBonus) error {
	b.UpdatedAt = time.Now()
	for i, existing := range r.bonuses {
		if existing.PlayerBonusID == b.PlayerBonusID {
			r.bonuses[i] = b
			return nil
		}
	}
	return ErrBonusNotFound
}

func (r *memBonusRepo) CountClaims(_ context.Context, userID, templateID string) (int64, error) {
	var count int64
	for _, b := range r.bonuses {
		if b.UserID == userID && b.TemplateID == templateID &&
			b.Status != StatusCancelled && b.Status != StatusExpired {
			count++
		}
	}
	return count, nil
}

func (r *memBonusRepo) FindWagerable(_ context.Context, userID, tenantID string, now time.Time) ([]*PlayerBonus, error) {
	var found []*PlayerBonus
	for _, b := range r.bonuses {
		if b.UserID == userID && b.TenantID == tenantID &&
			(b.Status == StatusActive || b.Status == StatusWagering) &&
			b.Wagering.Remaining.IsPositive() && b.ExpiresAt.After(now) {
			found = append(found, b)
		}
	}
	sortByCreated(found)
	return found, nil
}

func (r *memBonusRepo) FindActiveByType(_ context.Context, userID, tenantID string, bonusType template.BonusType, now time.Time) ([]*PlayerBonus, error) {
	var found []*PlayerBonus
	for _, b := range r.bonuses {
		if b.UserID == userID && b.TenantID == tenantID &&
			b.Type == bonusType && b.Status == StatusActive && b.ExpiresAt.After(now) {
			found = append(found, b)
		}
	}
	sortByCreated(found)
	return found, nil
}

func (r *memBonusRepo) FindPendingCashback(_ context.Context, userID, tenantID string, now time.Time) (*PlayerBonus, error) {
	var found []*PlayerBonus
	for _, b := range r.bonuses {
		if b.UserID == userID && b.TenantID == tenantID &&
			b.Type == template.TypeCashback && b.Status == StatusPending &&
			!b.Cashback.Credited && !b.Cashback.PeriodEnd.After(now) {
			found = append(found, b)
		}
	}
	if len(found) == 0 {
		return nil, ErrBonusNotFound
	}
	sortByCreated(found)
	return found[0], nil
}

func (r *memBonusRepo) FindExpired(_ context.Context, now time.Time) ([]*PlayerBonus, error) {
	var found []*PlayerBonus
	for _, b := range r.bonuses {
		switch b.Status {
		case StatusPending, StatusActive, StatusWagering:
			if !b.ExpiresAt.After(now) {
				found = append(found, b)
			}
		}
	}
	sortByCreated(found)
	return found, nil
}

func (r *memBonusRepo) AppendHistory(_ context.Context, h *HistoryEntry) error {
	r.historySeq++
	h.HistoryID = r.historySeq
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	r.history = append(r.history, *h)
	return nil
}

func (r *memBonusRepo) HistoryFor(_ context.Context, bonusID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for _, h := range r.history {
		if h.PlayerBonusID == bonusID {
			entries = append(entries, h)
		}
	}
	return entries, nil
}

func (r *memBonusRepo) CreateWagerEvent(_ context.Context, e *WagerEvent) error {
	r.events = append(r.events, *e)
	return nil
}

func (r *memBonusRepo) HasWagerEvent(_ context.Context, bonusID, betID string) (bool, error) {
	for _, e := range r.events {
		if e.PlayerBonusID == bonusID && e.BetID == betID {
			return true, nil
		}
	}
	return false, nil
}

func sortByCreated(bonuses []*PlayerBonus) {
	for i := 1; i < len(bonuses); i++ {
		for j := i; j > 0 && bonuses[j].CreatedAt.Before(bonuses[j-1].CreatedAt); j-- {
			bonuses[j], bonuses[j-1] = bonuses[j-1], bonuses[j]
		}
	}
}

type memTemplateRepo struct {
	templates map[string]*template.BonusTemplate
}

func (r *memTemplateRepo) add(tpl *template.BonusTemplate) {
	if r.templates == nil {
		r.templates = make(map[string]*template.BonusTemplate)
	}
	r.templates[tpl.TemplateID] = tpl
}

func (r *memTemplateRepo) FindActiveByCode(_ context.Context, code, tenantID string) (*template.BonusTemplate, error) {
	for _, tpl := range r.templates {
		if tpl.Code == code && tpl.Active && (tpl.TenantID == tenantID || tpl.TenantID == "") {
			return tpl, nil
		}
	}
	return nil, template.ErrTemplateNotFound
}

func (r *memTemplateRepo) GetByID(_ context.Context, templateID string) (*template.BonusTemplate, error) {
	if tpl, ok := r.templates[templateID]; ok {
		return tpl, nil
	}
	return nil, template.ErrTemplateNotFound
}

func (r *memTemplateRepo) IncrementClaimed(_ context.Context, templateID string, awarded decimal.Decimal) error {
	tpl, ok := r.templates[templateID]
	if !ok {
		return template.ErrTemplateNotFound
	}
	tpl.Stats.ClaimedCount++
	tpl.Stats.TotalAwarded = tpl.Stats.TotalAwarded.Add(awarded)
	return nil
}

func (r *memTemplateRepo) IncrementAwarded(_ context.Context, templateID string, awarded decimal.Decimal) error {
	tpl, ok := r.templates[templateID]
	if !ok {
		return template.ErrTemplateNotFound
	}
	tpl.Stats.TotalAwarded = tpl.Stats.TotalAwarded.Add(awarded)
	return nil
}

func (r *memTemplateRepo) IncrementConverted(_ context.Context, templateID string, converted decimal.Decimal) error {
	tpl, ok := r.templates[templateID]
	if !ok {
		return template.ErrTemplateNotFound
	}
	tpl.Stats.TotalConverted = tpl.Stats.TotalConverted.Add(converted)
	return nil
}

type memWalletRepo struct {
	wallets      []*wallet.Wallet
	transactions []wallet.Transaction
	ledger       []wallet.LedgerEntry
	depositCount map[string]int64
}

func (r *memWalletRepo) GetByUserTenant(_ context.Context, userID, tenantID string) (*wallet.Wallet, error) {
	for _, w := range r.wallets {
		if w.UserID == userID && w.TenantID == tenantID {
			return w, nil
		}
	}
	return nil, wallet.ErrWalletNotFound
}

func (r *memWalletRepo) CreateWallet(_ context.Context, userID, tenantID, currency string) (*wallet.Wallet, error) {
	w := &wallet.Wallet{
		WalletID:         uuid.New().String(),
		UserID:           userID,
		TenantID:         tenantID,
		Currency:         currency,
		AvailableBalance: decimal.Zero,
		BonusBalance:     decimal.Zero,
		Version:          1,
	}
	r.wallets = append(r.wallets, w)
	return w, nil
}

func (r *memWalletRepo) CreditBonus(ctx context.Context, t *wallet.Transaction) error {
	return r.apply(ctx, t, func(w *wallet.Wallet) {
		w.BonusBalance = w.BonusBalance.Add(t.Amount)
	})
}

func (r *memWalletRepo) DebitBonus(ctx context.Context, t *wallet.Transaction) error {
	return r.apply(ctx, t, func(w *wallet.Wallet) {
		if t.Amount.GreaterThan(w.BonusBalance) {
			t.Amount = w.BonusBalance
		}
		w.BonusBalance = w.BonusBalance.Sub(t.Amount)
	})
}

func (r *memWalletRepo) ConvertBonus(ctx context.Context, t *wallet.Transaction) error {
	return r.apply(ctx, t, func(w *wallet.Wallet) {
		w.BonusBalance = w.BonusBalance.Sub(t.Amount)
		w.AvailableBalance = w.AvailableBalance.Add(t.Amount)
	})
}

func (r *memWalletRepo) CountCompletedDeposits(_ context.Context, userID, tenantID string) (int64, error) {
	return r.depositCount[userID], nil
}

func (r *memWalletRepo) apply(_ context.Context, t *wallet.Transaction, mutate func(w *wallet.Wallet)) error {
	var target *wallet.Wallet
	for _, w := range r.wallets {
		if w.WalletID == t.WalletID {
			target = w
			break
		}
	}
	if target == nil {
		return wallet.ErrWalletNotFound
	}

	t.AvailableBefore = target.AvailableBalance
	t.BonusBefore = target.BonusBalance
	mutate(target)
	target.Version++
	t.TransactionID = uuid.New().String()
	t.AvailableAfter = target.AvailableBalance
	t.BonusAfter = target.BonusBalance
	t.Status = "completed"
	t.CreatedAt = time.Now()

	r.transactions = append(r.transactions, *t)
	r.ledger = append(r.ledger, wallet.LedgerEntry{
		LedgerID:      uuid.New().String(),
		TransactionID: t.TransactionID,
		Amount:        t.Amount,
		CreatedAt:     t.CreatedAt,
	})
	return nil
}

type memUserRepo struct {
	kyc map[string]string
}

func (r *memUserRepo) GetKYCStatus(_ context.Context, userID string) (string, error) {
	if status, ok := r.kyc[userID]; ok {
		return status, nil
	}
	return "", user.ErrUserNotFound
}

type memBetRepo struct {
	lostStakes decimal.Decimal
}

func (r *memBetRepo) SumLostStakes(_ context.Context, userID, tenantID string, from, to time.Time) (decimal.Decimal, error) {
	return r.lostStakes, nil
}
