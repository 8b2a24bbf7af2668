package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is one authenticated browser/device binding. The row id stays
// server-side; ClientToken is the only identifier ever handed to the
// browser, mapped 1:1 to this row.
type Session struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ClientToken string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	IPAddress string `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string `gorm:"type:varchar(500)" json:"user_agent"`

	CreatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
	LastActivityAt time.Time `gorm:"type:timestamptz;not null" json:"last_activity_at"`
	ExpiresAt      time.Time `gorm:"type:timestamptz;not null;index" json:"expires_at"`

	Active            bool       `gorm:"not null;default:true;index" json:"active"`
	TerminatedAt      *time.Time `gorm:"type:timestamptz" json:"terminated_at,omitempty"`
	TerminationReason *string    `gorm:"type:varchar(100)" json:"termination_reason,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
