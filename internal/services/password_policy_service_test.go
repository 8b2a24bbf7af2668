package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/google/uuid"
)

func newPolicyService(t *testing.T, history *mockHistoryRepo) *services.PasswordPolicyService {
	t.Helper()
	svc, err := services.NewPasswordPolicyService(history, config.PasswordConfig{
		MinAge:      "1m",
		MaxAge:      "2160h",
		HistorySize: 2,
	})
	if err != nil {
		t.Fatalf("NewPasswordPolicyService: %v", err)
	}
	return svc
}

func TestScoreStrength(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{})

	tests := []struct {
		name         string
		password     string
		wantScore    int
		wantStrength string
		wantValid    bool
	}{
		{
			name:         "all checks pass",
			password:     "Abc12345678!",
			wantScore:    100,
			wantStrength: "Very Strong",
			wantValid:    true,
		},
		{
			name:         "long lowercase only",
			password:     "abcdefghijkl",
			wantScore:    47,
			wantStrength: "Weak",
			wantValid:    false,
		},
		{
			name:         "varied but short",
			password:     "Abc123!",
			wantScore:    71,
			wantStrength: "Good",
			wantValid:    false,
		},
		{
			name:         "empty",
			password:     "",
			wantScore:    0,
			wantStrength: "Not set",
			wantValid:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ScoreStrength(tt.password)
			if result.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", result.Score, tt.wantScore)
			}
			if result.Strength != tt.wantStrength {
				t.Errorf("strength = %q, want %q", result.Strength, tt.wantStrength)
			}
			if result.IsValid != tt.wantValid {
				t.Errorf("valid = %v, want %v", result.IsValid, tt.wantValid)
			}
		})
	}
}

func TestScoreStrengthSuggestions(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{})

	result := svc.ScoreStrength("abcdefghijkl")
	if len(result.Suggestions) != 5 {
		t.Fatalf("suggestions = %d, want 5", len(result.Suggestions))
	}

	passed := 0
	for _, s := range result.Suggestions {
		if strings.HasPrefix(s, "✓") {
			passed++
		}
	}
	if passed != 2 {
		t.Errorf("passing suggestions = %d, want 2 (length and lowercase)", passed)
	}
}

func TestScoreStrengthCountsCharactersNotBytes(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{})

	// 10 characters but 22 bytes; the length check must fail.
	short := svc.ScoreStrength("秘密の合言葉Aa1!")
	if short.IsValid {
		t.Errorf("10-character password accepted as valid")
	}
	if got := short.Suggestions[0]; !strings.HasPrefix(got, "✗ Length: 10") {
		t.Errorf("length suggestion = %q, want a 10-character failure", got)
	}

	// 12 characters with every class present passes.
	long := svc.ScoreStrength("秘密の合言葉です!Aa1")
	if !long.IsValid {
		t.Errorf("12-character password rejected")
	}
}

func TestIsReusedAgainstCurrentPassword(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{
		recentFunc: func(uuid.UUID, int) ([]string, error) { return nil, nil },
	})

	user := &models.User{ID: uuid.New(), PasswordHash: hashPassword(t, "Current-Pass1!")}
	if !svc.IsReused(user, "Current-Pass1!") {
		t.Errorf("current password not flagged as reused")
	}
	if svc.IsReused(user, "Different-Pass2@") {
		t.Errorf("fresh password flagged as reused")
	}
}

func TestIsReusedAgainstHistory(t *testing.T) {
	oldHash := hashPassword(t, "Old-Pass1!")
	svc := newPolicyService(t, &mockHistoryRepo{
		recentFunc: func(_ uuid.UUID, limit int) ([]string, error) {
			if limit != 2 {
				t.Errorf("history queried with limit %d, want 2", limit)
			}
			return []string{oldHash}, nil
		},
	})

	user := &models.User{ID: uuid.New(), PasswordHash: hashPassword(t, "Current-Pass1!")}
	if !svc.IsReused(user, "Old-Pass1!") {
		t.Errorf("historical password not flagged as reused")
	}
}

func TestIsReusedFailsSafe(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{
		recentFunc: func(uuid.UUID, int) ([]string, error) {
			return nil, errors.New("history unavailable")
		},
	})

	user := &models.User{ID: uuid.New(), PasswordHash: hashPassword(t, "Current-Pass1!")}
	if !svc.IsReused(user, "Brand-New-Pass3#") {
		t.Errorf("history failure must block the change by reporting reuse")
	}
}

func TestRecordChangePrunesHistory(t *testing.T) {
	var appended []string
	pruned := false

	svc := newPolicyService(t, &mockHistoryRepo{
		appendFunc: func(entry *models.PasswordHistory) error {
			appended = append(appended, entry.PasswordHash)
			return nil
		},
		pruneOldFunc: func(_ uuid.UUID, keep int) error {
			pruned = true
			if keep != 2 {
				t.Errorf("prune keep = %d, want 2", keep)
			}
			return nil
		},
	})

	if err := svc.RecordChange(uuid.New(), "some-old-hash"); err != nil {
		t.Fatalf("RecordChange: %v", err)
	}
	if len(appended) != 1 {
		t.Errorf("appended %d entries, want 1", len(appended))
	}
	if !pruned {
		t.Errorf("history not pruned after append")
	}
}

// inMemoryHistory implements real retention semantics so the rolling
// reuse window can be exercised end to end.
type inMemoryHistory struct {
	hashes []string
}

func (h *inMemoryHistory) Append(entry *models.PasswordHistory) error {
	h.hashes = append([]string{entry.PasswordHash}, h.hashes...)
	return nil
}

func (h *inMemoryHistory) RecentHashes(_ uuid.UUID, limit int) ([]string, error) {
	if len(h.hashes) < limit {
		limit = len(h.hashes)
	}
	out := make([]string, limit)
	copy(out, h.hashes[:limit])
	return out, nil
}

func (h *inMemoryHistory) PruneOld(_ uuid.UUID, keep int) error {
	if len(h.hashes) > keep {
		h.hashes = h.hashes[:keep]
	}
	return nil
}

func TestReuseWindowRollsForward(t *testing.T) {
	history := &inMemoryHistory{}
	svc, err := services.NewPasswordPolicyService(history, config.PasswordConfig{
		MinAge:      "1m",
		MaxAge:      "2160h",
		HistorySize: 2,
	})
	if err != nil {
		t.Fatalf("NewPasswordPolicyService: %v", err)
	}

	passwords := []string{"First-Pass1!", "Second-Pass2@", "Third-Pass3#", "Fourth-Pass4$"}
	user := &models.User{ID: uuid.New()}

	// Walk through three changes, retiring each hash into the history.
	for _, p := range passwords[:3] {
		if user.PasswordHash != "" {
			if err := svc.RecordChange(user.ID, user.PasswordHash); err != nil {
				t.Fatalf("RecordChange: %v", err)
			}
		}
		user.PasswordHash = hashPassword(t, p)
	}
	if err := svc.RecordChange(user.ID, user.PasswordHash); err != nil {
		t.Fatalf("RecordChange: %v", err)
	}
	user.PasswordHash = hashPassword(t, passwords[3])

	// Current plus the last two retired passwords stay blocked.
	for _, p := range passwords[1:] {
		if !svc.IsReused(user, p) {
			t.Errorf("password %q should still be considered reused", p)
		}
	}

	// The password from three changes ago has rolled out of the window.
	if svc.IsReused(user, passwords[0]) {
		t.Errorf("password %q should have left the reuse window", passwords[0])
	}
}

func TestCheckMinAge(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{})
	now := time.Now().UTC()

	recent := now.Add(-10 * time.Second)
	user := &models.User{ID: uuid.New(), LastPasswordChangeAt: &recent}
	if err := svc.CheckMinAge(user, now); !errors.Is(err, services.ErrPasswordTooYoung) {
		t.Errorf("err = %v, want ErrPasswordTooYoung", err)
	}

	old := now.Add(-2 * time.Minute)
	user.LastPasswordChangeAt = &old
	if err := svc.CheckMinAge(user, now); err != nil {
		t.Errorf("err = %v, want nil for aged password", err)
	}

	user.LastPasswordChangeAt = nil
	if err := svc.CheckMinAge(user, now); err != nil {
		t.Errorf("err = %v, want nil when no change recorded", err)
	}
}

func TestIsExpired(t *testing.T) {
	svc := newPolicyService(t, &mockHistoryRepo{})
	now := time.Now().UTC()

	stale := now.Add(-2161 * time.Hour)
	user := &models.User{ID: uuid.New(), LastPasswordChangeAt: &stale}
	if !svc.IsExpired(user, now) {
		t.Errorf("password older than the maximum age not reported expired")
	}

	fresh := now.Add(-time.Hour)
	user.LastPasswordChangeAt = &fresh
	if svc.IsExpired(user, now) {
		t.Errorf("fresh password reported expired")
	}
}
