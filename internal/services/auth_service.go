package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password"; callers must not distinguish the two.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrLockedOut           = errors.New("account locked out")
	ErrBotCheckFailed      = errors.New("anti-bot verification failed")
	ErrSecondFactorInvalid = errors.New("invalid verification code")
	ErrChallengeExpired    = errors.New("login challenge expired")
)

type TokenClaims struct {
	UserID           string `json:"sub"`
	Email            string `json:"email"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
	jwt.RegisteredClaims
}

// LoginInput is one login attempt as seen from the transport layer.
type LoginInput struct {
	Email        string
	Password     string
	CaptchaToken string
	IPAddress    string
	UserAgent    string
}

// LoginResult carries the outcome plus the counters the UI shows on
// rejection (attempts used/left, lockout seconds remaining).
type LoginResult struct {
	User    *models.User
	Session *models.Session

	SecondFactorRequired bool
	ChallengeID          uuid.UUID

	FailedAttemptsUsed      int
	AttemptsLeft            int
	LockoutSecondsRemaining int
}

// AuthService drives the login/lockout/second-factor state machine.
type AuthService struct {
	users      repositories.UserRepository
	challenges repositories.LoginChallengeRepository
	sessions   SessionRegistry
	policy     *PasswordPolicyService
	verifier   BotVerifier
	factor     SecondFactorChallenge
	audit      Auditor
	cfg        *config.Config

	maxFailedAttempts    int
	lockoutDuration      time.Duration
	challengeTTL         time.Duration
	maxChallengeAttempts int
}

func NewAuthService(
	users repositories.UserRepository,
	challenges repositories.LoginChallengeRepository,
	sessions SessionRegistry,
	policy *PasswordPolicyService,
	verifier BotVerifier,
	factor SecondFactorChallenge,
	audit Auditor,
	cfg *config.Config,
) (*AuthService, error) {
	lockoutDuration, err := cfg.Lockout.GetDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid lockout duration: %w", err)
	}
	challengeTTL, err := cfg.TwoFactor.GetChallengeTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid challenge ttl: %w", err)
	}

	maxAttempts := cfg.Lockout.MaxFailedAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	maxChallengeAttempts := cfg.TwoFactor.MaxAttempts
	if maxChallengeAttempts <= 0 {
		maxChallengeAttempts = 5
	}

	return &AuthService{
		users:                users,
		challenges:           challenges,
		sessions:             sessions,
		policy:               policy,
		verifier:             verifier,
		factor:               factor,
		audit:                audit,
		cfg:                  cfg,
		maxFailedAttempts:    maxAttempts,
		lockoutDuration:      lockoutDuration,
		challengeTTL:         challengeTTL,
		maxChallengeAttempts: maxChallengeAttempts,
	}, nil
}

// Login runs the password step of the state machine. On full success the
// result holds the new session; when the account has a second factor the
// result instead holds a challenge id for the code step.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	result := &LoginResult{AttemptsLeft: s.maxFailedAttempts}

	ok, _, err := s.verifier.Verify(ctx, input.CaptchaToken, input.IPAddress, "login")
	if !ok {
		info := "reCAPTCHA failed"
		if err != nil {
			info = fmt.Sprintf("reCAPTCHA failed: %v", err)
		}
		s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, nil, info)
		return result, ErrBotCheckFailed
	}

	user, err := s.users.GetByEmail(input.Email)
	if err != nil {
		return result, err
	}
	if user == nil {
		// Indistinguishable from a wrong password; no lockout effect.
		s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, nil, "UserNotFound")
		return result, ErrInvalidCredentials
	}

	now := time.Now().UTC()

	if user.IsLockedOut(now) {
		s.fillLockout(result, user, now)
		s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, &user.ID, "LockedOut")
		return result, ErrLockedOut
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return s.handleWrongPassword(user, input, now, result)
	}

	if user.SecondFactorEnabled() {
		challenge, err := s.challenges.Create(user.ID, s.challengeTTL)
		if err != nil {
			return result, err
		}
		if err := s.factor.Issue(user); err != nil {
			return result, err
		}

		result.SecondFactorRequired = true
		result.ChallengeID = challenge.ID
		s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, &user.ID, "2FA Required")
		return result, nil
	}

	return s.completeLogin(user, input.IPAddress, input.UserAgent, result, "")
}

// LoginWithCode runs the second-factor step against a pending challenge.
// A failed code burns a challenge attempt but never touches the primary
// lockout counter.
func (s *AuthService) LoginWithCode(challengeID uuid.UUID, code, ipAddress, userAgent string) (*LoginResult, error) {
	result := &LoginResult{}
	now := time.Now().UTC()

	challenge, err := s.challenges.GetActiveByID(challengeID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, ErrChallengeExpired
		}
		return result, err
	}
	if challenge.FailedAttempts >= s.maxChallengeAttempts {
		return result, ErrChallengeExpired
	}

	user, err := s.users.GetByID(challenge.UserID)
	if err != nil {
		return result, err
	}
	if user == nil {
		return result, ErrInvalidCredentials
	}

	if !s.factor.Verify(user, code) {
		_ = s.challenges.IncrementFailedAttempts(challenge.ID)
		s.audit.LoginAttempt(user.Email, false, ipAddress, userAgent, &user.ID, "2FA Failed")
		return result, ErrSecondFactorInvalid
	}

	if err := s.challenges.MarkConsumed(challenge.ID, now); err != nil {
		return result, err
	}

	return s.completeLogin(user, ipAddress, userAgent, result, "2FA Success")
}

func (s *AuthService) handleWrongPassword(user *models.User, input LoginInput, now time.Time, result *LoginResult) (*LoginResult, error) {
	// An expired lockout starts a fresh attempt window.
	if user.LockoutUntil != nil && !user.IsLockedOut(now) {
		user.LockoutUntil = nil
		user.FailedLoginAttempts = 0
	}

	user.FailedLoginAttempts++
	user.LastFailedLoginAt = &now

	lockedNow := user.FailedLoginAttempts >= s.maxFailedAttempts
	if lockedNow {
		until := now.Add(s.lockoutDuration)
		user.LockoutUntil = &until
	}

	if err := s.users.Update(user); err != nil {
		return result, err
	}

	result.FailedAttemptsUsed = min(user.FailedLoginAttempts, s.maxFailedAttempts)
	result.AttemptsLeft = max(0, s.maxFailedAttempts-result.FailedAttemptsUsed)

	if lockedNow {
		s.fillLockout(result, user, now)
		s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, &user.ID, "LockedOutTriggered")
		return result, ErrLockedOut
	}

	s.audit.LoginAttempt(input.Email, false, input.IPAddress, input.UserAgent, &user.ID, "WrongPassword")
	return result, ErrInvalidCredentials
}

func (s *AuthService) completeLogin(user *models.User, ipAddress, userAgent string, result *LoginResult, auditInfo string) (*LoginResult, error) {
	now := time.Now().UTC()
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLoginAt = &now
	if err := s.users.Update(user); err != nil {
		return result, err
	}

	session, err := s.sessions.CreateSingleSession(user.ID, ipAddress, userAgent)
	if err != nil {
		return result, err
	}

	result.User = user
	result.Session = session
	s.audit.LoginAttempt(user.Email, true, ipAddress, userAgent, &user.ID, auditInfo)
	return result, nil
}

func (s *AuthService) fillLockout(result *LoginResult, user *models.User, now time.Time) {
	result.LockoutSecondsRemaining = user.LockoutSecondsRemaining(now)
	result.FailedAttemptsUsed = min(user.FailedLoginAttempts, s.maxFailedAttempts)
	result.AttemptsLeft = max(0, s.maxFailedAttempts-result.FailedAttemptsUsed)
}

// Register creates a new account after bot-check and strength validation.
func (s *AuthService) Register(ctx context.Context, fullName, email, password, captchaToken, ipAddress, userAgent string) (*models.User, error) {
	if ok, _, _ := s.verifier.Verify(ctx, captchaToken, ipAddress, "register"); !ok {
		return nil, ErrBotCheckFailed
	}

	exists, err := s.users.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	if strength := s.policy.ScoreStrength(password); !strength.IsValid {
		return nil, ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	secret, err := GenerateSecondFactorSecret(s.cfg.TwoFactor, email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:                email,
		FullName:             fullName,
		PasswordHash:         string(hash),
		TwoFactorSecret:      &secret,
		LastPasswordChangeAt: &now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.audit.SecurityEvent(&user.ID, email, models.AuditRegistration, "New user registration", ipAddress, userAgent)
	return user, nil
}

// ChangePassword applies the full policy (min age, strength, reuse) and
// records the retired hash in the history.
func (s *AuthService) ChangePassword(userID uuid.UUID, currentPassword, newPassword, ipAddress, userAgent string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.policy.CheckMinAge(user, now); err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if strength := s.policy.ScoreStrength(newPassword); !strength.IsValid {
		return ErrPasswordTooWeak
	}
	if s.policy.IsReused(user, newPassword) {
		return ErrPasswordReused
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	oldHash := user.PasswordHash
	user.PasswordHash = string(hash)
	user.LastPasswordChangeAt = &now
	if err := s.users.Update(user); err != nil {
		return err
	}

	if err := s.policy.RecordChange(user.ID, oldHash); err != nil {
		return err
	}

	s.audit.SecurityEvent(&user.ID, user.Email, models.AuditChangePassword, "User changed password successfully", ipAddress, userAgent)
	return nil
}

// EnableSecondFactor sends a confirmation code to the account's email.
func (s *AuthService) EnableSecondFactor(userID uuid.UUID) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	return s.factor.Issue(user)
}

// ConfirmSecondFactor turns the factor on once the emailed code checks out.
func (s *AuthService) ConfirmSecondFactor(userID uuid.UUID, code, ipAddress, userAgent string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	if !s.factor.Verify(user, code) {
		return ErrSecondFactorInvalid
	}

	enabled := true
	user.TwoFactorEnabled = &enabled
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.audit.SecurityEvent(&user.ID, user.Email, "Enable2FA", "Second factor enabled", ipAddress, userAgent)
	return nil
}

// DisableSecondFactor requires a valid code, same as enabling.
func (s *AuthService) DisableSecondFactor(userID uuid.UUID, code, ipAddress, userAgent string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	if !user.SecondFactorEnabled() {
		return nil
	}

	if !s.factor.Verify(user, code) {
		return ErrSecondFactorInvalid
	}

	enabled := false
	user.TwoFactorEnabled = &enabled
	if err := s.users.Update(user); err != nil {
		return err
	}

	s.audit.SecurityEvent(&user.ID, user.Email, "Disable2FA", "Second factor disabled", ipAddress, userAgent)
	return nil
}

// Logout terminates the session bound to the request's client token.
func (s *AuthService) Logout(user *models.User, clientToken, ipAddress, userAgent string) error {
	if err := s.sessions.TerminateByClientToken(clientToken, ReasonLogout); err != nil {
		return err
	}

	s.audit.SecurityEvent(&user.ID, user.Email, models.AuditLogout, "User logged out", ipAddress, userAgent)
	return nil
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(userID)
}

// GenerateAccessToken signs the short-lived JWT carried in the auth cookie.
func (s *AuthService) GenerateAccessToken(user *models.User) (string, error) {
	expiry, err := s.cfg.JWT.GetExpiry()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := TokenClaims{
		UserID:           user.ID.String(),
		Email:            user.Email,
		TwoFactorEnabled: user.SecondFactorEnabled(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}
