package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Email        string    `gorm:"type:citext;uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"type:varchar(100);not null" json:"full_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`

	// Lockout bookkeeping, owned by the login flow.
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockoutUntil        *time.Time `gorm:"type:timestamptz" json:"-"`
	LastFailedLoginAt   *time.Time `gorm:"type:timestamptz" json:"-"`

	// CurrentSessionToken holds the client token of the single live
	// session, or nil when the account has none. It never holds a
	// session row id.
	CurrentSessionToken *string `gorm:"type:varchar(64)" json:"-"`

	TwoFactorEnabled *bool   `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  *string `gorm:"type:varchar(64)" json:"-"`

	LastLoginAt              *time.Time `gorm:"type:timestamptz" json:"last_login_at"`
	LastPasswordChangeAt     *time.Time `gorm:"type:timestamptz" json:"-"`
	LastPasswordResetRequest *time.Time `gorm:"type:timestamptz" json:"-"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Relationships
	Sessions        []Session         `gorm:"foreignKey:UserID" json:"-"`
	PasswordHistory []PasswordHistory `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsLockedOut reports whether the account is inside an active lockout window.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// LockoutSecondsRemaining returns the whole seconds left in the lockout
// window, or 0 when the account is not locked.
func (u *User) LockoutSecondsRemaining(now time.Time) int {
	if !u.IsLockedOut(now) {
		return 0
	}
	return int(u.LockoutUntil.Sub(now).Seconds())
}

func (u *User) SecondFactorEnabled() bool {
	return u.TwoFactorEnabled != nil && *u.TwoFactorEnabled
}
