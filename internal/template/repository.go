package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bonus_service/internal/db"
)

var ErrTemplateNotFound = errors.New("bonus template not found")

type TemplateRepository interface {
	FindActiveByCode(ctx context.Context, code string, tenantID string) (*BonusTemplate, error)
	GetByID(ctx context.Context, templateID string) (*BonusTemplate, error)
	IncrementClaimed(ctx context.Context, templateID string, awarded decimal.Decimal) error
	IncrementAwarded(ctx context.Context, templateID string, awarded decimal.Decimal) error
	IncrementConverted(ctx context.Context, templateID string, converted decimal.Decimal) error
}

type TemplateRepositoryImpl struct {
	db *gorm.DB
}

func NewTemplateRepository(conn *gorm.DB) *TemplateRepositoryImpl {
	return &TemplateRepositoryImpl{db: conn}
}

// FindActiveByCode matches a template scoped to the tenant or marked global.
func (r *TemplateRepositoryImpl) FindActiveByCode(ctx context.Context, code string, tenantID string) (*BonusTemplate, error) {
	var tpl BonusTemplate
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("code = ? AND active = ? AND (tenant_id = ? OR tenant_id = '')", code, true, tenantID).
		First(&tpl).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find template by code: %w", err)
	}

	return &tpl, nil
}

func (r *TemplateRepositoryImpl) GetByID(ctx context.Context, templateID string) (*BonusTemplate, error) {
	var tpl BonusTemplate
	err := db.From(ctx, r.db).WithContext(ctx).
		Where("template_id = ?", templateID).
		First(&tpl).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &tpl, nil
}

func (r *TemplateRepositoryImpl) IncrementClaimed(ctx context.Context, templateID string, awarded decimal.Decimal) error {
	result := db.From(ctx, r.db).WithContext(ctx).
		Model(&BonusTemplate{}).
		Where("template_id = ?", templateID).
		Updates(map[string]interface{}{
			"stats_claimed_count": gorm.Expr("stats_claimed_count + 1"),
			"stats_total_awarded": gorm.Expr("stats_total_awarded + ?", awarded),
			"updated_at":          gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to increment claim stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// IncrementAwarded adds late-resolved value (cashback credits) to the
// awarded stat without touching the claim count.
func (r *TemplateRepositoryImpl) IncrementAwarded(ctx context.Context, templateID string, awarded decimal.Decimal) error {
	result := db.From(ctx, r.db).WithContext(ctx).
		Model(&BonusTemplate{}).
		Where("template_id = ?", templateID).
		Updates(map[string]interface{}{
			"stats_total_awarded": gorm.Expr("stats_total_awarded + ?", awarded),
			"updated_at":          gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to increment awarded stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *TemplateRepositoryImpl) IncrementConverted(ctx context.Context, templateID string, converted decimal.Decimal) error {
	result := db.From(ctx, r.db).WithContext(ctx).
		Model(&BonusTemplate{}).
		Where("template_id = ?", templateID).
		Updates(map[string]interface{}{
			"stats_total_converted": gorm.Expr("stats_total_converted + ?", converted),
			"updated_at":            gorm.Expr("NOW()"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to increment converted stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
