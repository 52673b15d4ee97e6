package bonus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/template"
	"bonus_service/internal/wallet"
)

// ProcessWager applies one settled bet's turnover to every eligible bonus,
// oldest claimed first, so long-standing obligations are satisfied before
// newer ones. A bonus whose minimum odds the bet does not meet is skipped
// but the bet is still evaluated against the rest. Application is
// idempotent per bet id: a replayed bet contributes nothing.
func (e *Engine) ProcessWager(ctx context.Context, userID, tenantID, betID string, betAmount decimal.Decimal, category template.GameCategory, odds decimal.Decimal) error {
	now := time.Now()

	return e.tx.Do(ctx, func(ctx context.Context) error {
		bonuses, err := e.bonuses.FindWagerable(ctx, userID, tenantID, now)
		if err != nil {
			return err
		}

		for _, b := range bonuses {
			if b.Wagering.MinOdds.IsPositive() && odds.LessThan(b.Wagering.MinOdds) {
				continue
			}
			replayed, err := e.bonuses.HasWagerEvent(ctx, b.PlayerBonusID, betID)
			if err != nil {
				return err
			}
			if replayed {
				continue
			}

			rate := b.Wagering.RateFor(category)
			if !rate.IsPositive() {
				continue
			}
			contribution := betAmount.Mul(rate)
			if contribution.GreaterThan(b.Wagering.Remaining) {
				contribution = b.Wagering.Remaining
			}

			b.Wagering.Completed = b.Wagering.Completed.Add(contribution)
			b.Wagering.Remaining = b.Wagering.Requirement.Sub(b.Wagering.Completed)
			b.Wagering.Progress = wageringProgress(b.Wagering.Completed, b.Wagering.Requirement)

			if err := e.bonuses.CreateWagerEvent(ctx, &WagerEvent{
				EventID:       uuid.New().String(),
				PlayerBonusID: b.PlayerBonusID,
				BetID:         betID,
				BetAmount:     betAmount,
				Rate:          rate,
				Contribution:  contribution,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
			if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
				PlayerBonusID: b.PlayerBonusID,
				Action:        ActionWagered,
				Amount:        contribution,
				Detail:        betID,
			}); err != nil {
				return err
			}

			if b.Wagering.Remaining.IsZero() {
				if err := e.convert(ctx, b); err != nil {
					return err
				}
				continue
			}

			if b.Status == StatusActive {
				b.Status = StatusWagering
			}
			if err := e.bonuses.Update(ctx, b); err != nil {
				return err
			}
		}

		return nil
	})
}

// ConvertBonusToReal moves the bonus's entire remaining balance from the
// wallet's bonus balance to its available balance and completes the bonus.
// This is the sole path by which bonus funds become withdrawable.
func (e *Engine) ConvertBonusToReal(ctx context.Context, b *PlayerBonus) error {
	return e.tx.Do(ctx, func(ctx context.Context) error {
		return e.convert(ctx, b)
	})
}

// convert runs inside the caller's transaction.
func (e *Engine) convert(ctx context.Context, b *PlayerBonus) error {
	amount := b.BonusRemaining

	if amount.IsPositive() {
		t := &wallet.Transaction{
			WalletID:        b.WalletID,
			UserID:          b.UserID,
			TenantID:        b.TenantID,
			TransactionType: wallet.TxBonusConversion,
			Amount:          amount,
			ReferenceID:     b.PlayerBonusID,
		}
		if err := e.wallets.ConvertBonus(ctx, t); err != nil {
			return err
		}
	}

	b.BonusRemaining = decimal.Zero
	b.Status = StatusCompleted
	if err := e.bonuses.Update(ctx, b); err != nil {
		return err
	}
	if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
		PlayerBonusID: b.PlayerBonusID,
		Action:        ActionConverted,
		Amount:        amount,
	}); err != nil {
		return err
	}
	if err := e.templates.IncrementConverted(ctx, b.TemplateID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"bonus_id": b.PlayerBonusID,
		"user_id":  b.UserID,
		"amount":   amount.String(),
	}).Info("bonus converted to real balance")

	return nil
}

func wageringProgress(completed, requirement decimal.Decimal) decimal.Decimal {
	if !requirement.IsPositive() {
		return decimal.Zero
	}
	progress := completed.Mul(hundred).Div(requirement).Round(2)
	if progress.GreaterThan(hundred) {
		progress = hundred
	}
	return progress
}
