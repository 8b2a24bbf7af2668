package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooWeak  = errors.New("password does not meet strength requirements")
	ErrPasswordReused   = errors.New("password was used recently")
	ErrPasswordTooYoung = errors.New("password was changed too recently")
)

const minPasswordLength = 12

var (
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
	symbolRe    = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// StrengthResult is the scoring outcome. The numeric score and label feed
// the UI meter; IsValid is the actual gate and requires every individual
// check to pass.
type StrengthResult struct {
	Score       int      `json:"score"`
	Strength    string   `json:"strength"`
	IsValid     bool     `json:"is_valid"`
	Suggestions []string `json:"suggestions"`
}

// PasswordPolicyService enforces strength, reuse-history, and age rules.
type PasswordPolicyService struct {
	history     repositories.PasswordHistoryRepository
	historySize int
	minAge      time.Duration
	maxAge      time.Duration
}

func NewPasswordPolicyService(history repositories.PasswordHistoryRepository, cfg config.PasswordConfig) (*PasswordPolicyService, error) {
	minAge, err := cfg.GetMinAge()
	if err != nil {
		return nil, fmt.Errorf("invalid password min_age: %w", err)
	}
	maxAge, err := cfg.GetMaxAge()
	if err != nil {
		return nil, fmt.Errorf("invalid password max_age: %w", err)
	}

	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = 2
	}

	return &PasswordPolicyService{
		history:     history,
		historySize: historySize,
		minAge:      minAge,
		maxAge:      maxAge,
	}, nil
}

// ScoreStrength runs the five independent checks. Raw weights: length 25,
// each character class 15 (raw max 85), normalized to 0-100.
func (s *PasswordPolicyService) ScoreStrength(password string) StrengthResult {
	if password == "" {
		return StrengthResult{
			Score:    0,
			Strength: "Not set",
			IsValid:  false,
			Suggestions: []string{
				"✗ Password cannot be empty",
				"✗ Minimum 12 characters required",
				"✗ Include uppercase letters",
				"✗ Include lowercase letters",
				"✗ Include numbers",
				"✗ Include special characters",
			},
		}
	}

	rawScore := 0
	suggestions := make([]string, 0, 5)

	// Length is measured in characters, not bytes, so multibyte input
	// does not inflate the check.
	runeCount := utf8.RuneCountInString(password)
	hasLength := runeCount >= minPasswordLength
	if hasLength {
		rawScore += 25
		suggestions = append(suggestions, fmt.Sprintf("✓ Length: %d characters (minimum 12)", runeCount))
	} else {
		suggestions = append(suggestions, fmt.Sprintf("✗ Length: %d characters (minimum 12 required)", runeCount))
	}

	hasLower := lowercaseRe.MatchString(password)
	if hasLower {
		rawScore += 15
		suggestions = append(suggestions, "✓ Contains lowercase letters")
	} else {
		suggestions = append(suggestions, "✗ Add lowercase letters (a-z)")
	}

	hasUpper := uppercaseRe.MatchString(password)
	if hasUpper {
		rawScore += 15
		suggestions = append(suggestions, "✓ Contains uppercase letters")
	} else {
		suggestions = append(suggestions, "✗ Add uppercase letters (A-Z)")
	}

	hasDigit := digitRe.MatchString(password)
	if hasDigit {
		rawScore += 15
		suggestions = append(suggestions, "✓ Contains numbers")
	} else {
		suggestions = append(suggestions, "✗ Add numbers (0-9)")
	}

	hasSymbol := symbolRe.MatchString(password)
	if hasSymbol {
		rawScore += 15
		suggestions = append(suggestions, "✓ Contains special characters")
	} else {
		suggestions = append(suggestions, "✗ Add special characters (!@#$%^&*)")
	}

	// Normalize raw max 85 to a 0-100 meter value.
	score := int(math.Round(float64(rawScore) / 85.0 * 100.0))
	if score > 100 {
		score = 100
	}

	var strength string
	isValid := true
	switch {
	case score >= 90:
		strength = "Very Strong"
	case score >= 75:
		strength = "Strong"
	case score >= 60:
		strength = "Good"
		isValid = hasLength
	case score >= 40:
		strength = "Weak"
		isValid = false
	default:
		strength = "Very Weak"
		isValid = false
	}

	// The label is advisory; the five-check conjunction is the gate.
	if !hasLength || !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		isValid = false
	}

	return StrengthResult{
		Score:       score,
		Strength:    strength,
		IsValid:     isValid,
		Suggestions: suggestions,
	}
}

// IsReused reports whether the candidate matches the current password or
// any retained history entry. Fail-safe: a verifier or store error blocks
// the change by reporting the password as reused.
func (s *PasswordPolicyService) IsReused(user *models.User, candidate string) bool {
	if user.PasswordHash != "" {
		if match, err := verifyAgainstHash(user.PasswordHash, candidate); err != nil {
			slog.Error("password reuse check failed on current hash",
				slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
			return true
		} else if match {
			return true
		}
	}

	hashes, err := s.history.RecentHashes(user.ID, s.historySize)
	if err != nil {
		slog.Error("password reuse check failed loading history",
			slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
		return true
	}

	for _, oldHash := range hashes {
		match, err := verifyAgainstHash(oldHash, candidate)
		if err != nil {
			slog.Error("password reuse check failed on history hash",
				slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
			return true
		}
		if match {
			return true
		}
	}

	return false
}

// RecordChange appends the retired hash to the history and prunes the
// history down to the retained size.
func (s *PasswordPolicyService) RecordChange(userID uuid.UUID, oldHash string) error {
	if oldHash == "" {
		return nil
	}

	entry := &models.PasswordHistory{
		UserID:       userID,
		PasswordHash: oldHash,
		ChangedAt:    time.Now().UTC(),
	}
	if err := s.history.Append(entry); err != nil {
		return err
	}

	return s.history.PruneOld(userID, s.historySize)
}

// CheckMinAge blocks a change attempted before the minimum age elapsed,
// which would otherwise let a user launder the reuse history.
func (s *PasswordPolicyService) CheckMinAge(user *models.User, now time.Time) error {
	if s.minAge <= 0 || user.LastPasswordChangeAt == nil {
		return nil
	}
	if now.Sub(*user.LastPasswordChangeAt) < s.minAge {
		return ErrPasswordTooYoung
	}
	return nil
}

// IsExpired reports whether the password aged past the maximum and a
// change must be forced.
func (s *PasswordPolicyService) IsExpired(user *models.User, now time.Time) bool {
	if s.maxAge <= 0 || user.LastPasswordChangeAt == nil {
		return false
	}
	return now.Sub(*user.LastPasswordChangeAt) >= s.maxAge
}

func (s *PasswordPolicyService) MinAge() time.Duration {
	return s.minAge
}

// verifyAgainstHash distinguishes a mismatch from a verifier failure so
// the caller can fail safe on the latter.
func verifyAgainstHash(hash, candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
