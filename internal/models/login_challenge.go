package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginChallenge carries a login attempt between the password step and the
// second-factor step. Consumed exactly once.
type LoginChallenge struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	ExpiresAt      time.Time  `gorm:"type:timestamptz;not null;index"`
	ConsumedAt     *time.Time `gorm:"type:timestamptz"`
	FailedAttempts int        `gorm:"not null;default:0"`
}

func (LoginChallenge) TableName() string {
	return "login_challenges"
}

func (c *LoginChallenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
