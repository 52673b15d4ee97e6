package bonus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bonus_service/internal/db"
	"bonus_service/internal/template"
)

var ErrBonusNotFound = errors.New("bonus not found")

type BonusRepository interface {
	Create(ctx context.Context, b *PlayerBonus) error
	GetByID(ctx context.Context, bonusID string) (*PlayerBonus, error)
	Update(ctx context.Context, b *PlayerBonus) error
	// CountClaims counts a user's claims of a template, excluding cancelled
	// and expired bonuses.
	CountClaims(ctx context.Context, userID, templateID string) (int64, error)
	// FindWagerable returns active/wagering unexpired bonuses with remaining
	// wagering requirement, oldest claimed first.
	FindWagerable(ctx context.Context, userID, tenantID string, now time.Time) ([]*PlayerBonus, error)
	// FindActiveByType returns the user's unexpired active bonuses of a type,
	// oldest claimed first.
	FindActiveByType(ctx context.Context, userID, tenantID string, bonusType template.BonusType, now time.Time) ([]*PlayerBonus, error)
	// FindPendingCashback returns the user's pending, uncredited cashback
	// bonus whose period has closed, or ErrBonusNotFound.
	FindPendingCashback(ctx context.Context, userID, tenantID string, now time.Time) (*PlayerBonus, error)
	// FindExpired returns every non-terminal bonus past its expiry.
	FindExpired(ctx context.Context, now time.Time) ([]*PlayerBonus, error)
	AppendHistory(ctx context.Context, h *HistoryEntry) error
	HistoryFor(ctx context.Context, bonusID string) ([]HistoryEntry, error)
	CreateWagerEvent(ctx context.Context, e *WagerEvent) error
	HasWagerEvent(ctx context.Context, bonusID, betID string) (bool, error)
}

type BonusRepositoryImpl struct {
	db *gorm.DB
}

func NewBonusRepository(conn *gorm.DB) *BonusRepositoryImpl {
	return &BonusRepositoryImpl{db: conn}
}

func (r *BonusRepositoryImpl) Create(ctx context.Context, b *PlayerBonus) error {
	if err := db.From(ctx, r.db).WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create player bonus: %w", err)
	}
	return nil
}

func (r *BonusRepositoryImpl) GetByID(ctx context.Context, bonusID string) (*PlayerBonus, error) {
	var b PlayerBonus
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("player_bonus_id = ?", bonusID).
		First(&b).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBonusNotFound
		}
		return nil, fmt.Errorf("failed to get bonus: %w", err)
	}
	return &b, nil
}

func (r *BonusRepositoryImpl) Update(ctx context.Context, b *PlayerBonus) error {
	b.UpdatedAt = time.Now()
	result := db.From(ctx, r.db).WithContext(ctx).
		Where("player_bonus_id = ?", b.PlayerBonusID).
		Save(b)

	if result.Error != nil {
		return fmt.Errorf("failed to update bonus: %w", result.Error)
	}
	return nil
}

func (r *BonusRepositoryImpl) CountClaims(ctx context.Context, userID, templateID string) (int64, error) {
	var count int64
	err := db.From(ctx, r.db).WithContext(ctx).
		Model(&PlayerBonus{}).
		Where("user_id = ? AND template_id = ? AND status NOT IN ?",
			userID, templateID, []BonusStatus{StatusCancelled, StatusExpired}).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return count, nil
}

func (r *BonusRepositoryImpl) FindWagerable(ctx context.Context, userID, tenantID string, now time.Time) ([]*PlayerBonus, error) {
	var bonuses []*PlayerBonus
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND tenant_id = ? AND status IN ? AND wagering_remaining > 0 AND expires_at > ?",
			userID, tenantID, []BonusStatus{StatusActive, StatusWagering}, now).
		Order("created_at ASC").
		Find(&bonuses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find wagerable bonuses: %w", err)
	}
	return bonuses, nil
}

func (r *BonusRepositoryImpl) FindActiveByType(ctx context.Context, userID, tenantID string, bonusType template.BonusType, now time.Time) ([]*PlayerBonus, error) {
	var bonuses []*PlayerBonus
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND tenant_id = ? AND type = ? AND status = ? AND expires_at > ?",
			userID, tenantID, bonusType, StatusActive, now).
		Order("created_at ASC").
		Find(&bonuses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find active bonuses: %w", err)
	}
	return bonuses, nil
}

func (r *BonusRepositoryImpl) FindPendingCashback(ctx context.Context, userID, tenantID string, now time.Time) (*PlayerBonus, error) {
	var b PlayerBonus
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND tenant_id = ? AND type = ? AND status = ? AND cashback_credited = ? AND cashback_period_end <= ?",
			userID, tenantID, template.TypeCashback, StatusPending, false, now).
		Order("created_at ASC").
		First(&b).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBonusNotFound
		}
		return nil, fmt.Errorf("failed to find pending cashback: %w", err)
	}
	return &b, nil
}

func (r *BonusRepositoryImpl) FindExpired(ctx context.Context, now time.Time) ([]*PlayerBonus, error) {
	var bonuses []*PlayerBonus
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("status IN ? AND expires_at <= ?",
			[]BonusStatus{StatusPending, StatusActive, StatusWagering}, now).
		Order("created_at ASC").
		Find(&bonuses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find expired bonuses: %w", err)
	}
	return bonuses, nil
}

func (r *BonusRepositoryImpl) AppendHistory(ctx context.Context, h *HistoryEntry) error {
	if err := db.From(ctx, r.db).WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *BonusRepositoryImpl) HistoryFor(ctx context.Context, bonusID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("player_bonus_id = ?", bonusID).
		Order("history_id ASC").
		Find(&entries).Error

	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

func (r *BonusRepositoryImpl) CreateWagerEvent(ctx context.Context, e *WagerEvent) error {
	if err := db.From(ctx, r.db).WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create wager event: %w", err)
	}
	return nil
}

func (r *BonusRepositoryImpl) HasWagerEvent(ctx context.Context, bonusID, betID string) (bool, error) {
	var count int64
	err := db.From(ctx, r.db).WithContext(ctx).
		Model(&WagerEvent{}).
		Where("player_bonus_id = ? AND bet_id = ?", bonusID, betID).
		Count(&count).Error

	if err != nil {
		return false, fmt.Errorf("failed to check wager event: %w", err)
	}
	return count > 0, nil
}
