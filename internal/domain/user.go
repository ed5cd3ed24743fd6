package domain

import "time"

// User представляет пользователя сервиса.
type User struct {
	ID           int64      `gorm:"primaryKey;column:id" json:"id"`
	Email        string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"` // скрываем пароль в JSON
	IsAdmin      bool       `gorm:"column:is_admin;not null;default:false" json:"isAdmin"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}
