package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/mailer"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// ErrResetRequestInvalid covers every consumption failure that must stay
// indistinguishable to the caller: unknown id, expired, already used, or
// a tampered email binding.
var ErrResetRequestInvalid = errors.New("reset request invalid or expired")

// PasswordResetService runs the forgot-password flow. Issuance is always
// generic toward the caller; only the audit trail records whether the
// email matched an account.
type PasswordResetService struct {
	users    repositories.UserRepository
	resets   repositories.PasswordResetRepository
	sessions SessionRegistry
	policy   *PasswordPolicyService
	mail     mailer.Mailer
	audit    Auditor

	baseURL    string
	requestTTL time.Duration
}

func NewPasswordResetService(
	users repositories.UserRepository,
	resets repositories.PasswordResetRepository,
	sessions SessionRegistry,
	policy *PasswordPolicyService,
	mail mailer.Mailer,
	audit Auditor,
	cfg *config.Config,
) (*PasswordResetService, error) {
	ttl, err := cfg.Reset.GetRequestTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid reset request_ttl: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &PasswordResetService{
		users:      users,
		resets:     resets,
		sessions:   sessions,
		policy:     policy,
		mail:       mail,
		audit:      audit,
		baseURL:    strings.TrimRight(cfg.Server.BaseURL, "/"),
		requestTTL: ttl,
	}, nil
}

// RequestReset issues a reset link for the account behind the email, if
// any. The return value is identical for known and unknown emails.
func (s *PasswordResetService) RequestReset(email, ipAddress, userAgent string) error {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		s.audit.SecurityEvent(nil, email, models.AuditForgotPassword, "Reset requested for unknown email", ipAddress, userAgent)
		return nil
	}

	now := time.Now().UTC()
	req := &models.PasswordResetRequest{
		RequestID: models.GenerateSecureToken(32),
		UserID:    user.ID,
		Email:     user.Email,
		Token:     models.GenerateSecureToken(64),
		CreatedAt: now,
		ExpiresAt: now.Add(s.requestTTL),
	}
	if err := s.resets.Create(req); err != nil {
		return err
	}

	user.LastPasswordResetRequest = &now
	if err := s.users.Update(user); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/reset-password?rid=%s", s.baseURL, req.RequestID)
	if err := s.mail.SendPasswordResetLink(user.Email, url); err != nil {
		// The row exists either way; the user can retry the request.
		slog.Error("failed to send reset email",
			slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
		s.audit.SecurityEvent(&user.ID, user.Email, models.AuditForgotPassword, "Reset link issued but email delivery failed", ipAddress, userAgent)
		return nil
	}

	s.audit.SecurityEvent(&user.ID, user.Email, models.AuditForgotPassword, "Password reset link sent", ipAddress, userAgent)
	return nil
}

// GetActiveRequest resolves a request id to its account email for the
// reset form prefill. Returns nil without error when the id is not live.
func (s *PasswordResetService) GetActiveRequest(requestID string) (*models.PasswordResetRequest, error) {
	return s.resets.GetActiveByRequestID(requestID, time.Now().UTC())
}

// ConsumeReset completes the flow: policy checks first, then the request
// is claimed exactly once, then the password is replaced and every live
// session is terminated.
func (s *PasswordResetService) ConsumeReset(requestID, email, newPassword, ipAddress, userAgent string) error {
	now := time.Now().UTC()

	req, err := s.resets.GetActiveByRequestID(requestID, now)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrResetRequestInvalid
	}

	user, err := s.users.GetByID(req.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrResetRequestInvalid
	}

	// The email submitted with the form must match the one the request
	// was issued for.
	if !strings.EqualFold(email, req.Email) {
		s.audit.SecurityEvent(&user.ID, req.Email, models.AuditResetPassword, "Reset rejected: email mismatch", ipAddress, userAgent)
		return ErrResetRequestInvalid
	}

	if err := s.policy.CheckMinAge(user, now); err != nil {
		return err
	}
	if strength := s.policy.ScoreStrength(newPassword); !strength.IsValid {
		return ErrPasswordTooWeak
	}
	if s.policy.IsReused(user, newPassword) {
		return ErrPasswordReused
	}

	// Claim before writing anything, binding the claim to the stored
	// server-side token. A concurrent consume of the same request id
	// loses here and the flow stays single-use.
	if err := s.resets.Claim(requestID, req.Token, now); err != nil {
		if errors.Is(err, repositories.ErrResetRequestConsumed) {
			return ErrResetRequestInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	oldHash := user.PasswordHash
	user.PasswordHash = string(hash)
	user.LastPasswordChangeAt = &now
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	if err := s.users.Update(user); err != nil {
		return err
	}

	if err := s.policy.RecordChange(user.ID, oldHash); err != nil {
		return err
	}

	if err := s.sessions.TerminateAllSessions(user.ID, ReasonAllEnded); err != nil {
		slog.Warn("failed to terminate sessions after reset",
			slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
	}

	s.audit.SecurityEvent(&user.ID, user.Email, models.AuditResetPassword, "Password reset via email link", ipAddress, userAgent)
	return nil
}
