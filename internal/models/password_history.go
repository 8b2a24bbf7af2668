package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistory stores retired password hashes, never plaintext. Only
// the most recent entries per user are retained; see the policy service.
type PasswordHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	ChangedAt    time.Time `gorm:"type:timestamptz;not null;default:now()" json:"changed_at"`
}

func (PasswordHistory) TableName() string {
	return "password_histories"
}
