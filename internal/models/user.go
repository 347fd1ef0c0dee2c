package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string         `json:"email" gorm:"uniqueIndex;not null"`
	Password       string         `json:"-"`
	Name           string         `json:"name"`
	NativeLanguage string         `json:"nativeLanguage" gorm:"default:en"`
	TargetLanguage string         `json:"targetLanguage" gorm:"default:es"`
	DailyStreak    int            `json:"dailyStreak" gorm:"default:0"`
	TotalXP        int            `json:"totalXp" gorm:"default:0"`
	LastActiveDate *time.Time     `json:"lastActiveDate"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) Level() string {
	switch {
	case u.TotalXP >= 5000:
		return "advanced"
	case u.TotalXP >= 1000:
		return "intermediate"
	default:
		return "beginner"
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Auth DTOs
type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Name           string `json:"name"`
	TargetLanguage string `json:"targetLanguage"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
