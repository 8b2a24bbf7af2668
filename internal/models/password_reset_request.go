package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetRequest binds an opaque request id to the real reset token.
// Only the request id ever leaves the server; the token stays in this row.
type PasswordResetRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	// Email as it was at issuance time, compared on consumption.
	Email string `gorm:"type:citext;not null" json:"-"`
	Token string `gorm:"type:text;not null" json:"-"`

	CreatedAt time.Time  `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null;index" json:"expires_at"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	UsedAt    *time.Time `gorm:"type:timestamptz" json:"used_at,omitempty"`
}

func (PasswordResetRequest) TableName() string {
	return "password_reset_requests"
}
