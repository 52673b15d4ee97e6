package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bonus_service/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetKYCStatus(ctx context.Context, userID string) (string, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(conn *gorm.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: conn}
}

func (r *UserRepositoryImpl) GetKYCStatus(ctx context.Context, userID string) (string, error) {
	var u User
	err := db.From(ctx, r.db).WithContext(ctx).
		Select("kyc_status").
		Where("user_id = ?", userID).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get kyc status: %w", err)
	}

	return u.KYCStatus, nil
}
