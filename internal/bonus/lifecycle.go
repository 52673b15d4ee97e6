package bonus

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/wallet"
)

// ProcessExpiredBonuses sweeps every non-terminal bonus past its expiry:
// unused bonus balance is clawed back from the wallet (floored at zero) and
// the bonus transitions to expired. Repeated invocation is idempotent since
// expired bonuses drop out of the matched status set. Returns the number of
// bonuses processed.
func (e *Engine) ProcessExpiredBonuses(ctx context.Context) (int, error) {
	now := time.Now()

	count := 0
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		bonuses, err := e.bonuses.FindExpired(ctx, now)
		if err != nil {
			return err
		}

		for _, b := range bonuses {
			if err := e.terminate(ctx, b, StatusExpired, ActionExpired, ""); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		log.WithField("count", count).Info("expired bonuses processed")
	}
	return count, nil
}

// CancelBonus terminates a bonus at any time, mirroring expiry's clawback,
// and records who cancelled it and why.
func (e *Engine) CancelBonus(ctx context.Context, bonusID, adminID, reason string) (*PlayerBonus, error) {
	var cancelled *PlayerBonus
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		b, err := e.bonuses.GetByID(ctx, bonusID)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return ErrBonusNotActive
		}

		b.CancelledBy = adminID
		b.CancelReason = reason
		if err := e.terminate(ctx, b, StatusCancelled, ActionCancelled, reason); err != nil {
			return err
		}

		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"bonus_id": bonusID,
		"admin_id": adminID,
	}).Info("bonus cancelled")

	return cancelled, nil
}

// terminate claws back the bonus's remaining balance and moves it to a
// terminal status. Runs inside the caller's transaction.
func (e *Engine) terminate(ctx context.Context, b *PlayerBonus, status BonusStatus, action, detail string) error {
	clawback := b.BonusRemaining

	if clawback.IsPositive() {
		t := &wallet.Transaction{
			WalletID:        b.WalletID,
			UserID:          b.UserID,
			TenantID:        b.TenantID,
			TransactionType: wallet.TxBonusClawback,
			Amount:          clawback,
			ReferenceID:     b.PlayerBonusID,
		}
		if err := e.wallets.DebitBonus(ctx, t); err != nil {
			return err
		}
	}

	b.BonusRemaining = decimal.Zero
	b.Status = status
	if err := e.bonuses.Update(ctx, b); err != nil {
		return err
	}
	return e.bonuses.AppendHistory(ctx, &HistoryEntry{
		PlayerBonusID: b.PlayerBonusID,
		Action:        action,
		Amount:        clawback,
		Detail:        detail,
	})
}

// CreditManualBonus grants a bonus outside the claim flow: eligibility is
// bypassed, the amount is admin-specified rather than derived from the
// template formula, and provenance records the granting admin.
func (e *Engine) CreditManualBonus(ctx context.Context, userID, tenantID, templateID string, amount decimal.Decimal, adminID string) (*PlayerBonus, error) {
	now := time.Now()

	var granted *PlayerBonus
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		tpl, err := e.templates.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		w, err := e.wallets.GetByUserTenant(ctx, userID, tenantID)
		if err != nil {
			return err
		}

		b := buildPlayerBonus(tpl, userID, tenantID, w.WalletID, decimal.Zero, amount, now)
		b.Status = StatusActive
		b.Source = SourceManual
		b.GrantedBy = adminID
		if err := e.bonuses.Create(ctx, b); err != nil {
			return err
		}

		if amount.IsPositive() {
			t := &wallet.Transaction{
				WalletID:        w.WalletID,
				UserID:          userID,
				TenantID:        tenantID,
				TransactionType: wallet.TxManualBonus,
				Amount:          amount,
				ReferenceID:     b.PlayerBonusID,
			}
			if err := e.wallets.CreditBonus(ctx, t); err != nil {
				return err
			}
		}

		if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
			PlayerBonusID: b.PlayerBonusID,
			Action:        ActionManualGrant,
			Amount:        amount,
			Detail:        adminID,
		}); err != nil {
			return err
		}
		if err := e.templates.IncrementClaimed(ctx, tpl.TemplateID, amount); err != nil {
			return err
		}

		granted = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"bonus_id": granted.PlayerBonusID,
		"user_id":  userID,
		"admin_id": adminID,
		"amount":   amount.String(),
	}).Info("manual bonus granted")

	return granted, nil
}
