package bonus

import (
	"time"

	"github.com/shopspring/decimal"

	"bonus_service/internal/template"
)

// BonusStatus is the PlayerBonus state machine:
// pending -> active -> wagering -> completed, with expired/cancelled
// reachable from any non-terminal state. Pending is used only by cashback
// bonuses awaiting their period close.
type BonusStatus string

const (
	StatusPending   BonusStatus = "pending"
	StatusActive    BonusStatus = "active"
	StatusWagering  BonusStatus = "wagering"
	StatusCompleted BonusStatus = "completed"
	StatusExpired   BonusStatus = "expired"
	StatusCancelled BonusStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s BonusStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusCancelled
}

// BonusSource records how a bonus came to exist.
type BonusSource string

const (
	SourcePromoCode BonusSource = "promo_code"
	SourceManual    BonusSource = "manual"
	SourceSystem    BonusSource = "system"
)

// FreeBetState tracks free-bet stock on a free_bet bonus.
type FreeBetState struct {
	Total        int             `gorm:"column:total;not null;default:0"`
	Remaining    int             `gorm:"column:remaining;not null;default:0"`
	AmountPerBet decimal.Decimal `gorm:"column:amount_per_bet;type:numeric(20,2);not null;default:0"`
	MinOdds      decimal.Decimal `gorm:"column:min_odds;type:numeric(8,2);not null;default:0"`
}

// FreeSpinState tracks free-spin stock on a free_spins bonus.
type FreeSpinState struct {
	Total        int             `gorm:"column:total;not null;default:0"`
	Remaining    int             `gorm:"column:remaining;not null;default:0"`
	ValuePerSpin decimal.Decimal `gorm:"column:value_per_spin;type:numeric(20,2);not null;default:0"`
}

// CashbackState tracks the loss-refund period on a cashback bonus.
type CashbackState struct {
	PeriodStart time.Time       `gorm:"column:period_start"`
	PeriodEnd   time.Time       `gorm:"column:period_end"`
	Percent     decimal.Decimal `gorm:"column:percent;type:numeric(8,2);not null;default:0"`
	MaxAmount   decimal.Decimal `gorm:"column:max_amount;type:numeric(20,2);not null;default:0"` // 0 = uncapped
	TotalLoss   decimal.Decimal `gorm:"column:total_loss;type:numeric(20,2);not null;default:0"`
	Credited    bool            `gorm:"column:credited;not null;default:false"`
}

// ComboBoostState tracks the accumulator-boost modifier on a combo_boost
// bonus. AppliedBets keeps the bet ids already boosted, so replays of the
// same bet never double-apply.
type ComboBoostState struct {
	Active      bool            `gorm:"column:active;not null;default:false"`
	BoostPerLeg decimal.Decimal `gorm:"column:boost_per_leg;type:numeric(8,2);not null;default:0"`
	MinLegs     int             `gorm:"column:min_legs;not null;default:0"`
	MaxBoost    decimal.Decimal `gorm:"column:max_boost;type:numeric(8,2);not null;default:0"`
	AppliedBets []string        `gorm:"column:applied_bets;type:jsonb;serializer:json"`
}

// WageringState tracks turnover progress toward conversion.
type WageringState struct {
	Requirement decimal.Decimal    `gorm:"column:requirement;type:numeric(20,2);not null;default:0"`
	Completed   decimal.Decimal    `gorm:"column:completed;type:numeric(20,2);not null;default:0"`
	Remaining   decimal.Decimal    `gorm:"column:remaining;type:numeric(20,2);not null;default:0"`
	Progress    decimal.Decimal    `gorm:"column:progress;type:numeric(5,2);not null;default:0"`
	Multiplier  decimal.Decimal    `gorm:"column:multiplier;type:numeric(8,2);not null;default:0"`
	Rates       template.RateTable `gorm:"column:rates;type:jsonb;serializer:json"`
	DefaultRate decimal.Decimal    `gorm:"column:default_rate;type:numeric(5,4);not null;default:1"`
	MinOdds     decimal.Decimal    `gorm:"column:min_odds;type:numeric(8,2);not null;default:0"`
}

// RateFor returns the contribution rate for a game category.
func (w *WageringState) RateFor(category template.GameCategory) decimal.Decimal {
	if rate, ok := w.Rates[category]; ok {
		return rate
	}
	return w.DefaultRate
}

// PlayerBonus is one issued bonus. Name/type/category are snapshotted from
// the template at claim time so later template edits never rewrite it.
// Records are never deleted, only status-transitioned.
type PlayerBonus struct {
	PlayerBonusID string             `gorm:"column:player_bonus_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	UserID        string             `gorm:"column:user_id;type:uuid;not null;index"`
	TenantID      string             `gorm:"column:tenant_id;type:varchar(50);not null"`
	TemplateID    string             `gorm:"column:template_id;type:uuid;not null"`
	WalletID      string             `gorm:"column:wallet_id;type:uuid;not null"`
	Name          string             `gorm:"column:name;type:varchar(100);not null"`
	Type          template.BonusType `gorm:"column:type;type:varchar(20);not null"`
	Category      string             `gorm:"column:category;type:varchar(50);not null;default:''"`
	Status        BonusStatus        `gorm:"column:status;type:varchar(20);not null;default:'active'"`

	DepositAmount  decimal.Decimal `gorm:"column:deposit_amount;type:numeric(20,2);not null;default:0"`
	BonusAmount    decimal.Decimal `gorm:"column:bonus_amount;type:numeric(20,2);not null;default:0"`
	BonusRemaining decimal.Decimal `gorm:"column:bonus_remaining;type:numeric(20,2);not null;default:0"`

	FreeBets   FreeBetState    `gorm:"embedded;embeddedPrefix:free_bets_"`
	FreeSpins  FreeSpinState   `gorm:"embedded;embeddedPrefix:free_spins_"`
	Cashback   CashbackState   `gorm:"embedded;embeddedPrefix:cashback_"`
	ComboBoost ComboBoostState `gorm:"embedded;embeddedPrefix:combo_"`
	Wagering   WageringState   `gorm:"embedded;embeddedPrefix:wagering_"`

	ExpiresAt        time.Time `gorm:"column:expires_at;not null"`
	WageringDeadline time.Time `gorm:"column:wagering_deadline;not null"`

	Source       BonusSource `gorm:"column:source;type:varchar(20);not null;default:'promo_code'"`
	GrantedBy    string      `gorm:"column:granted_by;type:varchar(100);not null;default:''"`
	CancelledBy  string      `gorm:"column:cancelled_by;type:varchar(100);not null;default:''"`
	CancelReason string      `gorm:"column:cancel_reason;type:varchar(255);not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

func (PlayerBonus) TableName() string {
	return "player_bonuses"
}

// HistoryEntry is an append-only log row of a state-changing action on a
// bonus. Rows are never edited or removed.
type HistoryEntry struct {
	HistoryID     int64           `gorm:"column:history_id;primaryKey;autoIncrement"`
	PlayerBonusID string          `gorm:"column:player_bonus_id;type:uuid;not null;index"`
	Action        string          `gorm:"column:action;type:varchar(30);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null;default:0"`
	Detail        string          `gorm:"column:detail;type:varchar(255);not null;default:''"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()"`
}

func (HistoryEntry) TableName() string {
	return "bonus_history"
}

const (
	ActionClaimed        = "claimed"
	ActionManualGrant    = "manual_grant"
	ActionWagered        = "wagered"
	ActionConverted      = "converted"
	ActionFreeBetUsed    = "free_bet_used"
	ActionComboBoosted   = "combo_boosted"
	ActionCashbackCredit = "cashback_credited"
	ActionExpired        = "expired"
	ActionCancelled      = "cancelled"
)

// WagerEvent records one bet's contribution to one bonus. The unique index
// over (player_bonus_id, bet_id) makes wager application idempotent per bet.
type WagerEvent struct {
	EventID       string          `gorm:"column:event_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	PlayerBonusID string          `gorm:"column:player_bonus_id;type:uuid;not null;index:idx_wager_bonus_bet,unique"`
	BetID         string          `gorm:"column:bet_id;type:varchar(255);not null;index:idx_wager_bonus_bet,unique"`
	BetAmount     decimal.Decimal `gorm:"column:bet_amount;type:numeric(20,2);not null"`
	Rate          decimal.Decimal `gorm:"column:rate;type:numeric(5,4);not null"`
	Contribution  decimal.Decimal `gorm:"column:contribution;type:numeric(20,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null;default:now()"`
}

func (WagerEvent) TableName() string {
	return "wager_events"
}
