package auth

import (
	"time"

	"modlog/internal/domain"
)

type User struct {
	domain.Identifiable
	Username       string         `gorm:"column:username;type:varchar(20);not null;uniqueIndex" json:"username"`
	Email          string         `gorm:"column:email;type:varchar(254);not null;uniqueIndex" json:"email"`
	PasswordHash   string         `gorm:"column:password_hash;type:varchar(60);not null" json:"-"`
	Privacy        domain.Privacy `gorm:"column:privacy;type:varchar(16);not null;default:public" json:"privacy"`
	ProfileImageID string         `gorm:"column:profile_image_id;type:varchar(32)" json:"profile_image_id,omitempty"`
	LastLogin      time.Time      `gorm:"column:last_login" json:"last_login"`
	domain.Timestamps
}

func (User) TableName() string { return "users" }
