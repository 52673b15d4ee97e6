package bonus

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/template"
	"bonus_service/internal/wallet"
)

// ApplyFreeBet draws one free bet from an active free-bet bonus. The stake
// consumes both the free-bet counter and the bonus's remaining balance, so
// the wallet's bonus balance stays reconciled.
func (e *Engine) ApplyFreeBet(ctx context.Context, userID, bonusID, betID string, betAmount decimal.Decimal) (*PlayerBonus, error) {
	now := time.Now()

	var applied *PlayerBonus
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		b, err := e.bonuses.GetByID(ctx, bonusID)
		if err != nil {
			if errors.Is(err, ErrBonusNotFound) {
				return ErrFreeBetUnavailable
			}
			return err
		}
		if b.UserID != userID || b.Type != template.TypeFreeBet ||
			b.Status != StatusActive || b.FreeBets.Remaining <= 0 || !b.ExpiresAt.After(now) {
			return ErrFreeBetUnavailable
		}
		if betAmount.GreaterThan(b.FreeBets.AmountPerBet) {
			return ErrStakeExceedsLimit
		}

		// Replay of an already-consumed bet id is a no-op.
		history, err := e.bonuses.HistoryFor(ctx, bonusID)
		if err != nil {
			return err
		}
		for _, h := range history {
			if h.Action == ActionFreeBetUsed && h.Detail == betID {
				applied = b
				return nil
			}
		}

		stake := betAmount
		if stake.GreaterThan(b.BonusRemaining) {
			stake = b.BonusRemaining
		}
		if stake.IsPositive() {
			t := &wallet.Transaction{
				WalletID:        b.WalletID,
				UserID:          b.UserID,
				TenantID:        b.TenantID,
				TransactionType: wallet.TxFreeBetStake,
				Amount:          stake,
				ReferenceID:     b.PlayerBonusID,
			}
			if err := e.wallets.DebitBonus(ctx, t); err != nil {
				return err
			}
		}

		b.FreeBets.Remaining--
		b.BonusRemaining = b.BonusRemaining.Sub(stake)
		if err := e.bonuses.Update(ctx, b); err != nil {
			return err
		}
		if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
			PlayerBonusID: b.PlayerBonusID,
			Action:        ActionFreeBetUsed,
			Amount:        betAmount,
			Detail:        betID,
		}); err != nil {
			return err
		}

		applied = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// GetAvailableFreeBets lists the user's active, unexpired free-bet bonuses
// with remaining stock.
func (e *Engine) GetAvailableFreeBets(ctx context.Context, userID, tenantID string) ([]*PlayerBonus, error) {
	bonuses, err := e.bonuses.FindActiveByType(ctx, userID, tenantID, template.TypeFreeBet, time.Now())
	if err != nil {
		return nil, err
	}

	available := make([]*PlayerBonus, 0, len(bonuses))
	for _, b := range bonuses {
		if b.FreeBets.Remaining > 0 {
			available = append(available, b)
		}
	}
	return available, nil
}

// CalculateComboBoost returns the boost percentage for an accumulator with
// the given leg count: zero below minLegs, otherwise
// (legs - minLegs + 1) * boostPerLeg capped at maxBoost. A non-positive
// minLegs means no combo boost is configured and always yields zero.
func CalculateComboBoost(legs, minLegs int, boostPerLeg, maxBoost decimal.Decimal) decimal.Decimal {
	minimum := int64(minLegs)
	if minimum <= 0 || int64(legs) < minimum {
		return decimal.Zero
	}
	boost := boostPerLeg.Mul(decimal.NewFromInt(int64(legs) - minimum + 1))
	if maxBoost.IsPositive() && boost.GreaterThan(maxBoost) {
		boost = maxBoost
	}
	return boost
}

// BoostResult is the outcome of applying a combo boost to a bet.
type BoostResult struct {
	Boost       decimal.Decimal `json:"boost"`
	BoostAmount decimal.Decimal `json:"boostAmount"`
	BoostedWin  decimal.Decimal `json:"boostedWin"`
}

// ApplyComboBoost uplifts a multi-leg bet's potential win using the user's
// active combo-boost bonus. No qualifying bonus or too few legs is not an
// error: the boost is best-effort and the result is simply zero.
func (e *Engine) ApplyComboBoost(ctx context.Context, userID, tenantID, betID string, legs int, potentialWin decimal.Decimal) (*BoostResult, error) {
	result := &BoostResult{
		Boost:       decimal.Zero,
		BoostAmount: decimal.Zero,
		BoostedWin:  potentialWin,
	}

	err := e.tx.Do(ctx, func(ctx context.Context) error {
		bonuses, err := e.bonuses.FindActiveByType(ctx, userID, tenantID, template.TypeComboBoost, time.Now())
		if err != nil {
			return err
		}

		var b *PlayerBonus
		for _, candidate := range bonuses {
			if candidate.ComboBoost.Active {
				b = candidate
				break
			}
		}
		if b == nil {
			return nil
		}

		boost := CalculateComboBoost(legs, b.ComboBoost.MinLegs, b.ComboBoost.BoostPerLeg, b.ComboBoost.MaxBoost)
		if !boost.IsPositive() {
			return nil
		}

		boostAmount := potentialWin.Mul(boost).Div(hundred)
		result.Boost = boost
		result.BoostAmount = boostAmount
		result.BoostedWin = potentialWin.Add(boostAmount)

		for _, applied := range b.ComboBoost.AppliedBets {
			if applied == betID {
				return nil
			}
		}

		b.ComboBoost.AppliedBets = append(b.ComboBoost.AppliedBets, betID)
		if err := e.bonuses.Update(ctx, b); err != nil {
			return err
		}
		return e.bonuses.AppendHistory(ctx, &HistoryEntry{
			PlayerBonusID: b.PlayerBonusID,
			Action:        ActionComboBoosted,
			Amount:        boostAmount,
			Detail:        betID,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CashbackPreview is the projected refund for a closed cashback period.
type CashbackPreview struct {
	Bonus          *PlayerBonus    `json:"bonus"`
	TotalLoss      decimal.Decimal `json:"totalLoss"`
	CashbackAmount decimal.Decimal `json:"cashbackAmount"`
}

// CalculateCashback previews the refund for the user's pending cashback
// bonus whose period has closed. It mutates nothing and returns nil when
// there is nothing pending.
func (e *Engine) CalculateCashback(ctx context.Context, userID, tenantID string) (*CashbackPreview, error) {
	b, err := e.bonuses.FindPendingCashback(ctx, userID, tenantID, time.Now())
	if err != nil {
		if errors.Is(err, ErrBonusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	totalLoss, err := e.bets.SumLostStakes(ctx, userID, tenantID, b.Cashback.PeriodStart, b.Cashback.PeriodEnd)
	if err != nil {
		return nil, err
	}

	return &CashbackPreview{
		Bonus:          b,
		TotalLoss:      totalLoss,
		CashbackAmount: totalLoss.Mul(b.Cashback.Percent).Div(hundred),
	}, nil
}

// CreditCashback resolves a pending cashback bonus: recomputes the refund
// from actual losses, clamps it to the snapshotted cap, credits the wallet,
// and activates the bonus with its wagering requirement. Nothing pending or
// a non-positive amount yields a nil result with no side effects.
func (e *Engine) CreditCashback(ctx context.Context, userID, tenantID, bonusID string) (*PlayerBonus, error) {
	now := time.Now()

	var credited *PlayerBonus
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		b, err := e.bonuses.GetByID(ctx, bonusID)
		if err != nil {
			if errors.Is(err, ErrBonusNotFound) {
				return nil
			}
			return err
		}
		if b.UserID != userID || b.TenantID != tenantID ||
			b.Type != template.TypeCashback || b.Status != StatusPending ||
			b.Cashback.Credited || b.Cashback.PeriodEnd.After(now) {
			return nil
		}

		totalLoss, err := e.bets.SumLostStakes(ctx, userID, tenantID, b.Cashback.PeriodStart, b.Cashback.PeriodEnd)
		if err != nil {
			return err
		}
		amount := totalLoss.Mul(b.Cashback.Percent).Div(hundred)
		if b.Cashback.MaxAmount.IsPositive() && amount.GreaterThan(b.Cashback.MaxAmount) {
			amount = b.Cashback.MaxAmount
		}
		if !amount.IsPositive() {
			return nil
		}

		t := &wallet.Transaction{
			WalletID:        b.WalletID,
			UserID:          b.UserID,
			TenantID:        b.TenantID,
			TransactionType: wallet.TxCashbackCredit,
			Amount:          amount,
			ReferenceID:     b.PlayerBonusID,
		}
		if err := e.wallets.CreditBonus(ctx, t); err != nil {
			return err
		}

		requirement := amount.Mul(b.Wagering.Multiplier)
		b.Status = StatusActive
		b.BonusAmount = amount
		b.BonusRemaining = amount
		b.Cashback.Credited = true
		b.Cashback.TotalLoss = totalLoss
		b.Wagering.Requirement = requirement
		b.Wagering.Remaining = requirement
		if err := e.bonuses.Update(ctx, b); err != nil {
			return err
		}
		if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
			PlayerBonusID: b.PlayerBonusID,
			Action:        ActionCashbackCredit,
			Amount:        amount,
		}); err != nil {
			return err
		}
		if err := e.templates.IncrementAwarded(ctx, b.TemplateID, amount); err != nil {
			return err
		}

		credited = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited != nil {
		log.WithFields(log.Fields{
			"bonus_id": credited.PlayerBonusID,
			"user_id":  userID,
			"amount":   credited.BonusAmount.String(),
		}).Info("cashback credited")
	}

	return credited, nil
}
