package user

import "time"

const (
	KYCStatusUnverified = "unverified"
	KYCStatusPending    = "pending"
	KYCStatusVerified   = "verified"
	KYCStatusRejected   = "rejected"
)

type User struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	TenantID  string    `gorm:"column:tenant_id;type:varchar(50);not null"`
	Username  string    `gorm:"column:username;type:varchar(100);not null"`
	KYCStatus string    `gorm:"column:kyc_status;type:varchar(20);not null;default:'unverified'"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

func (User) TableName() string {
	return "users"
}
