package bet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BetStatusOpen   = "open"
	BetStatusWon    = "won"
	BetStatusLost   = "lost"
	BetStatusVoided = "voided"
)

// Bet is the settled-bet shape this service reads for cashback aggregation.
// Bet placement and settlement live in the sportsbook/casino collaborators.
type Bet struct {
	BetID     string          `gorm:"column:bet_id;primaryKey;type:varchar(255)"`
	UserID    string          `gorm:"column:user_id;type:uuid;not null;index"`
	TenantID  string          `gorm:"column:tenant_id;type:varchar(50);not null"`
	Stake     decimal.Decimal `gorm:"column:stake;type:numeric(20,2);not null"`
	Odds      decimal.Decimal `gorm:"column:odds;type:numeric(8,2);not null"`
	Status    string          `gorm:"column:status;type:varchar(20);not null"`
	SettledAt *time.Time      `gorm:"column:settled_at"`
	CreatedAt time.Time       `gorm:"column:created_at;not null;default:now()"`
}

func (Bet) TableName() string {
	return "bets"
}
