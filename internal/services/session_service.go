package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/cache"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/google/uuid"
)

// Session termination reasons recorded on the session row.
const (
	ReasonLogout     = "Logout"
	ReasonSuperseded = "Superseded By New Login"
	ReasonManual     = "Manual Termination"
	ReasonAllEnded   = "All Sessions Terminated"
)

// SessionRegistry is the source of truth for active sessions and the
// single-active-session invariant.
type SessionRegistry interface {
	CreateSession(userID uuid.UUID, ipAddress, userAgent string) (*models.Session, error)
	CreateSingleSession(userID uuid.UUID, ipAddress, userAgent string) (*models.Session, error)
	ValidateSession(clientToken string, userID uuid.UUID) bool
	UpdateLastActivity(clientToken string)
	TerminateByClientToken(clientToken, reason string) error
	TerminateByID(id uuid.UUID, reason string) error
	TerminateAllSessions(userID uuid.UUID, reason string) error
	ActiveSessionCount(ctx context.Context, userID uuid.UUID) (int64, error)
	GetUserSessions(userID uuid.UUID) ([]models.Session, error)
	GetByID(id uuid.UUID) (*models.Session, error)
}

// SessionService implements SessionRegistry over the session repository,
// with a short-lived count cache in front of the count query.
type SessionService struct {
	sessions repositories.SessionRepository
	counts   cache.SessionCountCache

	inactivityWindow time.Duration
	countCacheTTL    time.Duration

	// Serializes the terminate-all + create unit per account so two
	// concurrent logins cannot interleave and leave two live sessions.
	locks   map[uuid.UUID]*sync.Mutex
	locksMu sync.Mutex
}

func NewSessionService(sessions repositories.SessionRepository, counts cache.SessionCountCache, cfg config.SessionConfig) (*SessionService, error) {
	window, err := cfg.GetInactivityWindow()
	if err != nil {
		return nil, fmt.Errorf("invalid session inactivity_window: %w", err)
	}
	if window <= 0 {
		window = 2 * time.Minute
	}

	ttl, err := cfg.GetCountCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid session count_cache_ttl: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &SessionService{
		sessions:         sessions,
		counts:           counts,
		inactivityWindow: window,
		countCacheTTL:    ttl,
		locks:            make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

func (s *SessionService) accountLock(userID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *SessionService) newSession(userID uuid.UUID, ipAddress, userAgent string, now time.Time) *models.Session {
	return &models.Session{
		ID:             uuid.New(),
		ClientToken:    models.GenerateSecureToken(64),
		UserID:         userID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.inactivityWindow),
		Active:         true,
	}
}

// CreateSession allocates a new active session and points the account's
// current-session pointer at it.
func (s *SessionService) CreateSession(userID uuid.UUID, ipAddress, userAgent string) (*models.Session, error) {
	session := s.newSession(userID, ipAddress, userAgent, time.Now().UTC())
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	s.counts.Invalidate(context.Background(), userID)
	return session, nil
}

// CreateSingleSession terminates every existing session for the account
// and creates the one new session, as a single unit. This is the only
// entry point used after a successful login.
func (s *SessionService) CreateSingleSession(userID uuid.UUID, ipAddress, userAgent string) (*models.Session, error) {
	lock := s.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	session := s.newSession(userID, ipAddress, userAgent, time.Now().UTC())
	if err := s.sessions.ReplaceActiveSessions(userID, session); err != nil {
		return nil, err
	}

	s.counts.Invalidate(context.Background(), userID)
	return session, nil
}

// ValidateSession succeeds only when the session exists, is active,
// belongs to the account, and saw activity within the inactivity window.
// On success the sliding expiration is refreshed. Any store failure is a
// plain false: the caller forces re-authentication instead of failing
// open.
func (s *SessionService) ValidateSession(clientToken string, userID uuid.UUID) bool {
	session, err := s.sessions.GetByClientToken(clientToken)
	if err != nil {
		slog.Error("session lookup failed, denying", slog.String("error", err.Error()))
		return false
	}
	if session == nil || !session.Active || session.UserID != userID {
		return false
	}

	now := time.Now().UTC()
	if session.LastActivityAt.Before(now.Add(-s.inactivityWindow)) {
		return false
	}

	if err := s.sessions.UpdateActivity(session.ID, now, now.Add(s.inactivityWindow)); err != nil {
		// Staleness only shortens the effective lifetime, never extends
		// it, so a failed refresh does not invalidate the session.
		slog.Warn("failed to refresh session activity", slog.String("error", err.Error()))
	}

	return true
}

// UpdateLastActivity refreshes last-activity without a full validation.
// Only for paths that already passed the gate in this request.
func (s *SessionService) UpdateLastActivity(clientToken string) {
	session, err := s.sessions.GetByClientToken(clientToken)
	if err != nil || session == nil {
		return
	}

	now := time.Now().UTC()
	if err := s.sessions.UpdateActivity(session.ID, now, now.Add(s.inactivityWindow)); err != nil {
		slog.Warn("failed to update session activity", slog.String("error", err.Error()))
	}
}

func (s *SessionService) TerminateByClientToken(clientToken, reason string) error {
	session, err := s.sessions.GetByClientToken(clientToken)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.TerminateByID(session.ID, reason)
}

// TerminateByID marks a session inactive. Terminating an already
// terminated session is a no-op success.
func (s *SessionService) TerminateByID(id uuid.UUID, reason string) error {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.sessions.Terminate(id, time.Now().UTC(), reason); err != nil {
		return err
	}

	s.counts.Invalidate(context.Background(), session.UserID)
	return nil
}

func (s *SessionService) TerminateAllSessions(userID uuid.UUID, reason string) error {
	if err := s.sessions.TerminateAllForUser(userID, time.Now().UTC(), reason); err != nil {
		return err
	}

	s.counts.Invalidate(context.Background(), userID)
	return nil
}

// ActiveSessionCount serves dashboards through the short-lived cache; the
// cached value is never used for validation decisions.
func (s *SessionService) ActiveSessionCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if count, ok := s.counts.Get(ctx, userID); ok {
		return count, nil
	}

	cutoff := time.Now().UTC().Add(-s.inactivityWindow)
	count, err := s.sessions.CountActive(userID, cutoff)
	if err != nil {
		return 0, err
	}

	s.counts.Set(ctx, userID, count, s.countCacheTTL)
	return count, nil
}

func (s *SessionService) GetUserSessions(userID uuid.UUID) ([]models.Session, error) {
	return s.sessions.GetActiveByUser(userID)
}

func (s *SessionService) GetByID(id uuid.UUID) (*models.Session, error) {
	return s.sessions.GetByID(id)
}
