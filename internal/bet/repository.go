package bet

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bonus_service/internal/db"
)

type BetRepository interface {
	SumLostStakes(ctx context.Context, userID, tenantID string, from, to time.Time) (decimal.Decimal, error)
}

type BetRepositoryImpl struct {
	db *gorm.DB
}

func NewBetRepository(conn *gorm.DB) *BetRepositoryImpl {
	return &BetRepositoryImpl{db: conn}
}

// SumLostStakes totals the stakes of bets settled as lost inside the window.
func (r *BetRepositoryImpl) SumLostStakes(ctx context.Context, userID, tenantID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.From(ctx, r.db).WithContext(ctx).
		Model(&Bet{}).
		Select("SUM(stake)").
		Where("user_id = ? AND tenant_id = ? AND status = ? AND settled_at >= ? AND settled_at < ?",
			userID, tenantID, BetStatusLost, from, to).
		Scan(&total).Error

	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum lost stakes: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
