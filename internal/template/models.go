package template

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusType identifies how a template's award amount is derived.
type BonusType string

const (
	TypeDepositMatch BonusType = "deposit_match"
	TypeReloadBonus  BonusType = "reload_bonus"
	TypeFreeBet      BonusType = "free_bet"
	TypeFreeSpins    BonusType = "free_spins"
	TypeBonusMoney   BonusType = "bonus_money"
	TypeNoDeposit    BonusType = "no_deposit"
	TypeReferral     BonusType = "referral"
	TypeLoyalty      BonusType = "loyalty"
	TypeCashback     BonusType = "cashback"
	TypeComboBoost   BonusType = "combo_boost"
)

// ValueRules configure how much a claim is worth.
type ValueRules struct {
	Percentage  decimal.Decimal `gorm:"column:percentage;type:numeric(8,2);not null;default:0"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null;default:0"`
	MinDeposit  decimal.Decimal `gorm:"column:min_deposit;type:numeric(20,2);not null;default:0"`
	MaxAmount   decimal.Decimal `gorm:"column:max_amount;type:numeric(20,2);not null;default:0"` // 0 = uncapped
	FreeBets    int             `gorm:"column:free_bets;not null;default:0"`
	AmountPerBet decimal.Decimal `gorm:"column:amount_per_bet;type:numeric(20,2);not null;default:0"`
	FreeSpins    int             `gorm:"column:free_spins;not null;default:0"`
	ValuePerSpin decimal.Decimal `gorm:"column:value_per_spin;type:numeric(20,2);not null;default:0"`

	// Cashback
	CashbackPercent    decimal.Decimal `gorm:"column:cashback_percent;type:numeric(8,2);not null;default:0"`
	CashbackPeriodDays int             `gorm:"column:cashback_period_days;not null;default:0"`
	MaxCashback        decimal.Decimal `gorm:"column:max_cashback;type:numeric(20,2);not null;default:0"` // 0 = uncapped

	// Combo boost
	BoostPerLeg decimal.Decimal `gorm:"column:boost_per_leg;type:numeric(8,2);not null;default:0"`
	MinLegs     int             `gorm:"column:min_legs;not null;default:0"`
	MaxBoost    decimal.Decimal `gorm:"column:max_boost;type:numeric(8,2);not null;default:0"`
}

// EligibilityRules gate who may claim.
type EligibilityRules struct {
	MaxClaimsPerUser int  `gorm:"column:max_claims_per_user;not null;default:0"` // 0 = unlimited
	MaxClaimsTotal   int  `gorm:"column:max_claims_total;not null;default:0"`    // 0 = unlimited
	NewPlayersOnly   bool `gorm:"column:new_players_only;not null;default:false"`
	MinPriorDeposits int  `gorm:"column:min_prior_deposits;not null;default:0"`
	KYCRequired      bool `gorm:"column:kyc_required;not null;default:false"`
}

// GameCategory is the closed set of wagering contribution buckets. Keeping
// the key space closed prevents a mistyped category from silently
// contributing nothing.
type GameCategory string

const (
	CategorySports     GameCategory = "sports"
	CategoryCasino     GameCategory = "casino"
	CategoryLiveCasino GameCategory = "live_casino"
	CategoryVirtual    GameCategory = "virtual"
)

// RateTable maps game categories to wagering contribution rates (0..1).
type RateTable map[GameCategory]decimal.Decimal

// WageringRules define the turnover obligation attached to awarded funds.
type WageringRules struct {
	Multiplier  decimal.Decimal `gorm:"column:multiplier;type:numeric(8,2);not null;default:0"`
	Rates       RateTable       `gorm:"column:rates;type:jsonb;serializer:json"`
	DefaultRate decimal.Decimal `gorm:"column:default_rate;type:numeric(5,4);not null;default:1"`
	MinOdds     decimal.Decimal `gorm:"column:min_odds;type:numeric(8,2);not null;default:0"`
}

// Validity is the template's claim window and issued-bonus lifetimes.
type Validity struct {
	StartsAt     time.Time `gorm:"column:starts_at;not null"`
	EndsAt       time.Time `gorm:"column:ends_at;not null"`
	DaysToExpire int       `gorm:"column:days_to_expire;not null;default:30"`
	DaysToWager  int       `gorm:"column:days_to_wager;not null;default:30"`
}

// Stats accumulate over the campaign's life.
type Stats struct {
	ClaimedCount   int             `gorm:"column:claimed_count;not null;default:0"`
	TotalAwarded   decimal.Decimal `gorm:"column:total_awarded;type:numeric(20,2);not null;default:0"`
	TotalConverted decimal.Decimal `gorm:"column:total_converted;type:numeric(20,2);not null;default:0"`
}

// BonusTemplate is an admin-authored campaign definition. Issued bonuses
// snapshot what they need from it, so edits never rewrite granted bonuses.
type BonusTemplate struct {
	TemplateID string    `gorm:"column:template_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Code       string    `gorm:"column:code;type:varchar(50);not null;uniqueIndex"`
	Name       string    `gorm:"column:name;type:varchar(100);not null"`
	Type       BonusType `gorm:"column:type;type:varchar(20);not null"`
	Category   string    `gorm:"column:category;type:varchar(50);not null;default:''"`

	Value       ValueRules       `gorm:"embedded"`
	Eligibility EligibilityRules `gorm:"embedded"`
	Wagering    WageringRules    `gorm:"embedded;embeddedPrefix:wagering_"`
	Validity    Validity         `gorm:"embedded"`
	Stats       Stats            `gorm:"embedded;embeddedPrefix:stats_"`

	// Empty tenant id means the campaign is global.
	TenantID string `gorm:"column:tenant_id;type:varchar(50);not null;default:''"`
	Active   bool   `gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

func (BonusTemplate) TableName() string {
	return "bonus_templates"
}
