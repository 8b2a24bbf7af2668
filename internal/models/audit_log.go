package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one structured security event. UserID is nil when the
// subject account is unknown (e.g. login with an unregistered email).
type AuditLog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email          string     `gorm:"type:citext;not null;index" json:"email"`
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Description    string     `gorm:"type:varchar(500);not null" json:"description"`
	IPAddress      string     `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent      string     `gorm:"type:varchar(500)" json:"user_agent"`
	Timestamp      time.Time  `gorm:"type:timestamptz;not null;index" json:"timestamp"`
	Success        bool       `gorm:"not null" json:"success"`
	AdditionalInfo *string    `gorm:"type:varchar(500)" json:"additional_info,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions recorded by the security core.
const (
	AuditLoginSuccess   = "LoginSuccess"
	AuditLoginFailed    = "LoginFailed"
	AuditLogout         = "Logout"
	AuditRegistration   = "Registration"
	AuditForgotPassword = "ForgotPassword"
	AuditResetPassword  = "ResetPassword"
	AuditChangePassword = "ChangePassword"
)
