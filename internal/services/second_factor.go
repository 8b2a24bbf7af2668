package services

import (
	"errors"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/mailer"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var ErrSecondFactorNotConfigured = errors.New("second factor secret not configured")

// SecondFactorChallenge is one delivery variant for the step-up factor.
// Adding a delivery method later means adding a variant, not changing the
// login flow.
type SecondFactorChallenge interface {
	Issue(user *models.User) error
	Verify(user *models.User, code string) bool
}

// EmailCodeChallenge delivers a short-lived numeric code by email. The
// code is a TOTP over the account's second-factor secret, so nothing
// beyond the code itself has to be stored per challenge.
type EmailCodeChallenge struct {
	mail mailer.Mailer
	cfg  config.TwoFactorConfig
}

func NewEmailCodeChallenge(mail mailer.Mailer, cfg config.TwoFactorConfig) *EmailCodeChallenge {
	return &EmailCodeChallenge{mail: mail, cfg: cfg}
}

func (c *EmailCodeChallenge) Issue(user *models.User) error {
	if user.TwoFactorSecret == nil {
		return ErrSecondFactorNotConfigured
	}

	code, err := totp.GenerateCodeCustom(*user.TwoFactorSecret, time.Now(), c.validateOpts())
	if err != nil {
		return err
	}

	return c.mail.SendOneTimeCode(user.Email, code)
}

func (c *EmailCodeChallenge) Verify(user *models.User, code string) bool {
	if user.TwoFactorSecret == nil {
		return false
	}

	valid, err := totp.ValidateCustom(code, *user.TwoFactorSecret, time.Now(), c.validateOpts())
	if err != nil {
		return false
	}
	return valid
}

func (c *EmailCodeChallenge) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    c.cfg.Period,
		Skew:      1,
		Digits:    totpDigits(c.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecondFactorSecret creates the per-account secret backing the
// email code variant.
func GenerateSecondFactorSecret(cfg config.TwoFactorConfig, accountEmail string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      cfg.Issuer,
		AccountName: accountEmail,
		Period:      cfg.Period,
		Digits:      totpDigits(cfg.Digits),
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func totpDigits(d uint) otp.Digits {
	switch d {
	case 6:
		return otp.DigitsSix
	case 8:
		return otp.DigitsEight
	default:
		return otp.DigitsSix
	}
}
