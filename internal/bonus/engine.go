package bonus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/bet"
	"bonus_service/internal/db"
	"bonus_service/internal/template"
	"bonus_service/internal/user"
	"bonus_service/internal/wallet"
)

// Business-rule rejections. Each reflects a data/eligibility state, not a
// transient fault; callers translate them to user-facing responses.
var (
	ErrBonusNotActive       = errors.New("bonus is not active")
	ErrNotYetAvailable      = errors.New("bonus not yet available")
	ErrBonusOfferExpired    = errors.New("bonus offer has expired")
	ErrMaxClaimsReached     = errors.New("maximum claims per user reached")
	ErrBonusExhausted       = errors.New("bonus claim limit exhausted")
	ErrMinDepositNotMet     = errors.New("deposit below bonus minimum")
	ErrNotNewPlayer         = errors.New("bonus restricted to new players")
	ErrInsufficientDeposits = errors.New("not enough prior deposits")
	ErrKycRequired          = errors.New("kyc verification required")
	ErrFreeBetUnavailable   = errors.New("no free bet available")
	ErrStakeExceedsLimit    = errors.New("stake exceeds free bet value")
)

var hundred = decimal.NewFromInt(100)

// Engine implements the bonus lifecycle: claiming, consumption, wagering
// progress, conversion, and maintenance. Every balance-mutating operation
// runs inside a single database transaction so the wallet's bonus balance
// always equals the sum of BonusRemaining across its non-terminal bonuses.
type Engine struct {
	tx        db.TxManager
	bonuses   BonusRepository
	templates template.TemplateRepository
	wallets   wallet.WalletRepository
	users     user.UserRepository
	bets      bet.BetRepository
}

func NewEngine(
	tx db.TxManager,
	bonuses BonusRepository,
	templates template.TemplateRepository,
	wallets wallet.WalletRepository,
	users user.UserRepository,
	bets bet.BetRepository,
) *Engine {
	return &Engine{
		tx:        tx,
		bonuses:   bonuses,
		templates: templates,
		wallets:   wallets,
		users:     users,
		bets:      bets,
	}
}

// ClaimBonus validates a promo code against its template and the player's
// history, creates the PlayerBonus, and credits the wallet's bonus balance
// for upfront-credit bonus types.
func (e *Engine) ClaimBonus(ctx context.Context, userID, tenantID, code string, depositAmount decimal.Decimal) (*PlayerBonus, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	now := time.Now()

	var created *PlayerBonus
	err := e.tx.Do(ctx, func(ctx context.Context) error {
		tpl, err := e.templates.FindActiveByCode(ctx, code, tenantID)
		if err != nil {
			return err
		}
		if now.Before(tpl.Validity.StartsAt) {
			return ErrNotYetAvailable
		}
		if now.After(tpl.Validity.EndsAt) {
			return ErrBonusOfferExpired
		}
		if err := e.checkEligibility(ctx, tpl, userID, tenantID, depositAmount); err != nil {
			return err
		}

		w, err := e.wallets.GetByUserTenant(ctx, userID, tenantID)
		if err != nil {
			return err
		}

		amount := awardAmount(tpl, depositAmount)
		b := buildPlayerBonus(tpl, userID, tenantID, w.WalletID, depositAmount, amount, now)
		if err := e.bonuses.Create(ctx, b); err != nil {
			return err
		}

		if amount.IsPositive() && upfrontCredit(tpl.Type) {
			t := &wallet.Transaction{
				WalletID:        w.WalletID,
				UserID:          userID,
				TenantID:        tenantID,
				TransactionType: wallet.TxBonusCredit,
				Amount:          amount,
				ReferenceID:     b.PlayerBonusID,
			}
			if err := e.wallets.CreditBonus(ctx, t); err != nil {
				return err
			}
		}

		if err := e.bonuses.AppendHistory(ctx, &HistoryEntry{
			PlayerBonusID: b.PlayerBonusID,
			Action:        ActionClaimed,
			Amount:        amount,
			Detail:        code,
		}); err != nil {
			return err
		}
		if err := e.templates.IncrementClaimed(ctx, tpl.TemplateID, amount); err != nil {
			return err
		}

		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"bonus_id": created.PlayerBonusID,
		"user_id":  userID,
		"code":     code,
		"amount":   created.BonusAmount.String(),
	}).Info("bonus claimed")

	return created, nil
}

// checkEligibility runs the template's checks in order, short-circuiting on
// the first failure.
func (e *Engine) checkEligibility(ctx context.Context, tpl *template.BonusTemplate, userID, tenantID string, depositAmount decimal.Decimal) error {
	if tpl.Eligibility.MaxClaimsPerUser > 0 {
		claims, err := e.bonuses.CountClaims(ctx, userID, tpl.TemplateID)
		if err != nil {
			return err
		}
		if claims >= int64(tpl.Eligibility.MaxClaimsPerUser) {
			return ErrMaxClaimsReached
		}
	}

	if tpl.Eligibility.MaxClaimsTotal > 0 && tpl.Stats.ClaimedCount >= tpl.Eligibility.MaxClaimsTotal {
		return ErrBonusExhausted
	}

	if depositAmount.LessThan(tpl.Value.MinDeposit) {
		return ErrMinDepositNotMet
	}

	if tpl.Eligibility.NewPlayersOnly || tpl.Eligibility.MinPriorDeposits > 0 {
		deposits, err := e.wallets.CountCompletedDeposits(ctx, userID, tenantID)
		if err != nil {
			return err
		}
		if tpl.Eligibility.NewPlayersOnly && deposits > 0 {
			return ErrNotNewPlayer
		}
		if deposits < int64(tpl.Eligibility.MinPriorDeposits) {
			return ErrInsufficientDeposits
		}
	}

	if tpl.Eligibility.KYCRequired {
		status, err := e.users.GetKYCStatus(ctx, userID)
		if err != nil {
			return err
		}
		if status != user.KYCStatusVerified {
			return ErrKycRequired
		}
	}

	return nil
}

// upfrontCredit reports whether a bonus type credits the wallet at claim
// time. Combo boost is a per-bet modifier and cashback resolves from losses
// after the period closes; neither advances funds.
func upfrontCredit(t template.BonusType) bool {
	return t != template.TypeComboBoost && t != template.TypeCashback
}

// awardAmount computes the claim's value from the template's rules.
func awardAmount(tpl *template.BonusTemplate, depositAmount decimal.Decimal) decimal.Decimal {
	switch tpl.Type {
	case template.TypeDepositMatch, template.TypeReloadBonus:
		amount := depositAmount.Mul(tpl.Value.Percentage).Div(hundred)
		if tpl.Value.MaxAmount.IsPositive() && amount.GreaterThan(tpl.Value.MaxAmount) {
			amount = tpl.Value.MaxAmount
		}
		return amount
	case template.TypeFreeBet:
		return tpl.Value.AmountPerBet.Mul(decimal.NewFromInt(int64(tpl.Value.FreeBets)))
	case template.TypeFreeSpins:
		return tpl.Value.ValuePerSpin.Mul(decimal.NewFromInt(int64(tpl.Value.FreeSpins)))
	case template.TypeBonusMoney, template.TypeNoDeposit, template.TypeReferral, template.TypeLoyalty:
		return tpl.Value.Amount
	default:
		// cashback and combo_boost resolve later
		return decimal.Zero
	}
}

// buildPlayerBonus snapshots everything an issued bonus needs from its
// template.
func buildPlayerBonus(tpl *template.BonusTemplate, userID, tenantID, walletID string, depositAmount, amount decimal.Decimal, now time.Time) *PlayerBonus {
	requirement := amount.Mul(tpl.Wagering.Multiplier)

	b := &PlayerBonus{
		PlayerBonusID:  uuid.New().String(),
		UserID:         userID,
		TenantID:       tenantID,
		TemplateID:     tpl.TemplateID,
		WalletID:       walletID,
		Name:           tpl.Name,
		Type:           tpl.Type,
		Category:       tpl.Category,
		Status:         StatusActive,
		DepositAmount:  depositAmount,
		BonusAmount:    amount,
		BonusRemaining: amount,
		Wagering: WageringState{
			Requirement: requirement,
			Completed:   decimal.Zero,
			Remaining:   requirement,
			Progress:    decimal.Zero,
			Multiplier:  tpl.Wagering.Multiplier,
			Rates:       tpl.Wagering.Rates,
			DefaultRate: tpl.Wagering.DefaultRate,
			MinOdds:     tpl.Wagering.MinOdds,
		},
		ExpiresAt:        now.AddDate(0, 0, tpl.Validity.DaysToExpire),
		WageringDeadline: now.AddDate(0, 0, tpl.Validity.DaysToWager),
		Source:           SourcePromoCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	switch tpl.Type {
	case template.TypeFreeBet:
		b.FreeBets = FreeBetState{
			Total:        tpl.Value.FreeBets,
			Remaining:    tpl.Value.FreeBets,
			AmountPerBet: tpl.Value.AmountPerBet,
			MinOdds:      tpl.Wagering.MinOdds,
		}
	case template.TypeFreeSpins:
		b.FreeSpins = FreeSpinState{
			Total:        tpl.Value.FreeSpins,
			Remaining:    tpl.Value.FreeSpins,
			ValuePerSpin: tpl.Value.ValuePerSpin,
		}
	case template.TypeCashback:
		b.Status = StatusPending
		b.Cashback = CashbackState{
			PeriodStart: now,
			PeriodEnd:   now.AddDate(0, 0, tpl.Value.CashbackPeriodDays),
			Percent:     tpl.Value.CashbackPercent,
			MaxAmount:   tpl.Value.MaxCashback,
		}
	case template.TypeComboBoost:
		b.ComboBoost = ComboBoostState{
			Active:      true,
			BoostPerLeg: tpl.Value.BoostPerLeg,
			MinLegs:     tpl.Value.MinLegs,
			MaxBoost:    tpl.Value.MaxBoost,
		}
	}

	return b
}
