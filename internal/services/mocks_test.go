package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/google/uuid"
)

type mockUserRepo struct {
	getByIDFunc       func(id uuid.UUID) (*models.User, error)
	getByEmailFunc    func(email string) (*models.User, error)
	createFunc        func(user *models.User) error
	updateFunc        func(user *models.User) error
	deleteFunc        func(id uuid.UUID) error
	existsByEmailFunc func(email string) (bool, error)
}

func (m *mockUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	if m.getByIDFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getByIDFunc(id)
}

func (m *mockUserRepo) GetByEmail(email string) (*models.User, error) {
	if m.getByEmailFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getByEmailFunc(email)
}

func (m *mockUserRepo) Create(user *models.User) error {
	if m.createFunc == nil {
		return errors.New("not implemented")
	}
	return m.createFunc(user)
}

func (m *mockUserRepo) Update(user *models.User) error {
	if m.updateFunc == nil {
		return errors.New("not implemented")
	}
	return m.updateFunc(user)
}

func (m *mockUserRepo) Delete(id uuid.UUID) error {
	if m.deleteFunc == nil {
		return errors.New("not implemented")
	}
	return m.deleteFunc(id)
}

func (m *mockUserRepo) ExistsByEmail(email string) (bool, error) {
	if m.existsByEmailFunc == nil {
		return false, errors.New("not implemented")
	}
	return m.existsByEmailFunc(email)
}

type mockSessionRepo struct {
	replaceFunc        func(userID uuid.UUID, session *models.Session) error
	createFunc         func(session *models.Session) error
	getByTokenFunc     func(clientToken string) (*models.Session, error)
	getByIDFunc        func(id uuid.UUID) (*models.Session, error)
	getActiveFunc      func(userID uuid.UUID) ([]models.Session, error)
	countActiveFunc    func(userID uuid.UUID, activeSince time.Time) (int64, error)
	updateActivityFunc func(id uuid.UUID, lastActivity, expiresAt time.Time) error
	terminateFunc      func(id uuid.UUID, at time.Time, reason string) error
	terminateAllFunc   func(userID uuid.UUID, at time.Time, reason string) error
}

func (m *mockSessionRepo) ReplaceActiveSessions(userID uuid.UUID, session *models.Session) error {
	if m.replaceFunc == nil {
		return errors.New("not implemented")
	}
	return m.replaceFunc(userID, session)
}

func (m *mockSessionRepo) Create(session *models.Session) error {
	if m.createFunc == nil {
		return errors.New("not implemented")
	}
	return m.createFunc(session)
}

func (m *mockSessionRepo) GetByClientToken(clientToken string) (*models.Session, error) {
	if m.getByTokenFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getByTokenFunc(clientToken)
}

func (m *mockSessionRepo) GetByID(id uuid.UUID) (*models.Session, error) {
	if m.getByIDFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getByIDFunc(id)
}

func (m *mockSessionRepo) GetActiveByUser(userID uuid.UUID) ([]models.Session, error) {
	if m.getActiveFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getActiveFunc(userID)
}

func (m *mockSessionRepo) CountActive(userID uuid.UUID, activeSince time.Time) (int64, error) {
	if m.countActiveFunc == nil {
		return 0, errors.New("not implemented")
	}
	return m.countActiveFunc(userID, activeSince)
}

func (m *mockSessionRepo) UpdateActivity(id uuid.UUID, lastActivity, expiresAt time.Time) error {
	if m.updateActivityFunc == nil {
		return errors.New("not implemented")
	}
	return m.updateActivityFunc(id, lastActivity, expiresAt)
}

func (m *mockSessionRepo) Terminate(id uuid.UUID, at time.Time, reason string) error {
	if m.terminateFunc == nil {
		return errors.New("not implemented")
	}
	return m.terminateFunc(id, at, reason)
}

func (m *mockSessionRepo) TerminateAllForUser(userID uuid.UUID, at time.Time, reason string) error {
	if m.terminateAllFunc == nil {
		return errors.New("not implemented")
	}
	return m.terminateAllFunc(userID, at, reason)
}

type mockChallengeRepo struct {
	createFunc       func(userID uuid.UUID, ttl time.Duration) (*models.LoginChallenge, error)
	getActiveFunc    func(id uuid.UUID, now time.Time) (*models.LoginChallenge, error)
	incrementFunc    func(id uuid.UUID) error
	markConsumedFunc func(id uuid.UUID, consumedAt time.Time) error
}

func (m *mockChallengeRepo) Create(userID uuid.UUID, ttl time.Duration) (*models.LoginChallenge, error) {
	if m.createFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFunc(userID, ttl)
}

func (m *mockChallengeRepo) GetActiveByID(id uuid.UUID, now time.Time) (*models.LoginChallenge, error) {
	if m.getActiveFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getActiveFunc(id, now)
}

func (m *mockChallengeRepo) IncrementFailedAttempts(id uuid.UUID) error {
	if m.incrementFunc == nil {
		return errors.New("not implemented")
	}
	return m.incrementFunc(id)
}

func (m *mockChallengeRepo) MarkConsumed(id uuid.UUID, consumedAt time.Time) error {
	if m.markConsumedFunc == nil {
		return errors.New("not implemented")
	}
	return m.markConsumedFunc(id, consumedAt)
}

type mockHistoryRepo struct {
	appendFunc   func(entry *models.PasswordHistory) error
	recentFunc   func(userID uuid.UUID, limit int) ([]string, error)
	pruneOldFunc func(userID uuid.UUID, keep int) error
}

func (m *mockHistoryRepo) Append(entry *models.PasswordHistory) error {
	if m.appendFunc == nil {
		return errors.New("not implemented")
	}
	return m.appendFunc(entry)
}

func (m *mockHistoryRepo) RecentHashes(userID uuid.UUID, limit int) ([]string, error) {
	if m.recentFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.recentFunc(userID, limit)
}

func (m *mockHistoryRepo) PruneOld(userID uuid.UUID, keep int) error {
	if m.pruneOldFunc == nil {
		return errors.New("not implemented")
	}
	return m.pruneOldFunc(userID, keep)
}

type mockResetRepo struct {
	createFunc    func(req *models.PasswordResetRequest) error
	getActiveFunc func(requestID string, now time.Time) (*models.PasswordResetRequest, error)
	claimFunc     func(requestID, token string, now time.Time) error
}

func (m *mockResetRepo) Create(req *models.PasswordResetRequest) error {
	if m.createFunc == nil {
		return errors.New("not implemented")
	}
	return m.createFunc(req)
}

func (m *mockResetRepo) GetActiveByRequestID(requestID string, now time.Time) (*models.PasswordResetRequest, error) {
	if m.getActiveFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.getActiveFunc(requestID, now)
}

func (m *mockResetRepo) Claim(requestID, token string, now time.Time) error {
	if m.claimFunc == nil {
		return errors.New("not implemented")
	}
	return m.claimFunc(requestID, token, now)
}

// recordingAuditor captures emitted events for assertions.
type recordingAuditor struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	action  string
	email   string
	success bool
	userID  *uuid.UUID
	info    string
}

func (a *recordingAuditor) LoginAttempt(email string, success bool, ipAddress, userAgent string, userID *uuid.UUID, additionalInfo string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	action := "LoginFailed"
	if success {
		action = "LoginSuccess"
	}
	a.events = append(a.events, recordedEvent{action: action, email: email, success: success, userID: userID, info: additionalInfo})
}

func (a *recordingAuditor) SecurityEvent(userID *uuid.UUID, email, action, description, ipAddress, userAgent string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{action: action, email: email, success: true, userID: userID, info: description})
}

func (a *recordingAuditor) byAction(action string) []recordedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []recordedEvent
	for _, e := range a.events {
		if e.action == action {
			out = append(out, e)
		}
	}
	return out
}

// stubVerifier approves or rejects every token.
type stubVerifier struct {
	allow bool
}

func (v *stubVerifier) Verify(_ context.Context, _, _, _ string) (bool, float64, error) {
	if !v.allow {
		return false, 0, errors.New("rejected")
	}
	return true, 0.9, nil
}

// stubFactor accepts one fixed code and records issued challenges.
type stubFactor struct {
	code   string
	issued int
}

func (f *stubFactor) Issue(_ *models.User) error {
	f.issued++
	return nil
}

func (f *stubFactor) Verify(_ *models.User, code string) bool {
	return code == f.code
}

// recordingMailer captures outgoing mail.
type recordingMailer struct {
	codes []string
	links []string
}

func (m *recordingMailer) SendOneTimeCode(_, code string) error {
	m.codes = append(m.codes, code)
	return nil
}

func (m *recordingMailer) SendPasswordResetLink(_, url string) error {
	m.links = append(m.links, url)
	return nil
}
