package model

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Salt         string `gorm:"not null"`
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (u User) TableName() string {
	return "users"
}
