package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/cache"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/google/uuid"
)

func newSessionService(t *testing.T, repo *mockSessionRepo) *services.SessionService {
	t.Helper()
	svc, err := services.NewSessionService(repo, cache.NewMemorySessionCountCache(), config.SessionConfig{
		InactivityWindow: "2m",
		CountCacheTTL:    "60s",
	})
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return svc
}

func TestCreateSingleSessionReplacesExisting(t *testing.T) {
	userID := uuid.New()
	var replacedFor uuid.UUID
	var created *models.Session

	repo := &mockSessionRepo{
		replaceFunc: func(id uuid.UUID, session *models.Session) error {
			replacedFor = id
			created = session
			return nil
		},
	}

	svc := newSessionService(t, repo)
	session, err := svc.CreateSingleSession(userID, "1.2.3.4", "agent")
	if err != nil {
		t.Fatalf("CreateSingleSession: %v", err)
	}

	if replacedFor != userID {
		t.Errorf("replace called for %s, want %s", replacedFor, userID)
	}
	if created != session {
		t.Errorf("returned session is not the one handed to the repository")
	}
	if !session.Active {
		t.Errorf("new session is not active")
	}
	if len(session.ClientToken) != 64 {
		t.Errorf("client token length = %d, want 64", len(session.ClientToken))
	}
	if session.ID == uuid.Nil {
		t.Errorf("session id not set")
	}
	if session.ClientToken == session.ID.String() {
		t.Errorf("client token must be distinct from the session id")
	}
}

func TestValidateSession(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		session *models.Session
		getErr  error
		forUser uuid.UUID
		want    bool
	}{
		{
			name: "live session",
			session: &models.Session{
				ID: uuid.New(), UserID: userID, Active: true,
				LastActivityAt: now.Add(-30 * time.Second),
			},
			forUser: userID,
			want:    true,
		},
		{
			name: "idle past the window",
			session: &models.Session{
				ID: uuid.New(), UserID: userID, Active: true,
				LastActivityAt: now.Add(-3 * time.Minute),
			},
			forUser: userID,
			want:    false,
		},
		{
			name: "terminated session",
			session: &models.Session{
				ID: uuid.New(), UserID: userID, Active: false,
				LastActivityAt: now,
			},
			forUser: userID,
			want:    false,
		},
		{
			name: "session of another account",
			session: &models.Session{
				ID: uuid.New(), UserID: uuid.New(), Active: true,
				LastActivityAt: now,
			},
			forUser: userID,
			want:    false,
		},
		{
			name:    "unknown token",
			session: nil,
			forUser: userID,
			want:    false,
		},
		{
			name:    "store failure denies",
			getErr:  errors.New("db down"),
			forUser: userID,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSessionRepo{
				getByTokenFunc: func(string) (*models.Session, error) {
					return tt.session, tt.getErr
				},
				updateActivityFunc: func(uuid.UUID, time.Time, time.Time) error {
					return nil
				},
			}

			svc := newSessionService(t, repo)
			if got := svc.ValidateSession("token", tt.forUser); got != tt.want {
				t.Errorf("ValidateSession = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateSessionRefreshesActivity(t *testing.T) {
	userID := uuid.New()
	session := &models.Session{
		ID: uuid.New(), UserID: userID, Active: true,
		LastActivityAt: time.Now().UTC().Add(-time.Minute),
	}

	refreshed := false
	repo := &mockSessionRepo{
		getByTokenFunc: func(string) (*models.Session, error) { return session, nil },
		updateActivityFunc: func(id uuid.UUID, lastActivity, expiresAt time.Time) error {
			refreshed = true
			if !expiresAt.After(lastActivity) {
				t.Errorf("expiry %v not after activity %v", expiresAt, lastActivity)
			}
			return nil
		},
	}

	svc := newSessionService(t, repo)
	if !svc.ValidateSession("token", userID) {
		t.Fatalf("expected valid session")
	}
	if !refreshed {
		t.Errorf("sliding expiration was not refreshed")
	}
}

func TestValidateSessionSurvivesFailedRefresh(t *testing.T) {
	userID := uuid.New()
	session := &models.Session{
		ID: uuid.New(), UserID: userID, Active: true,
		LastActivityAt: time.Now().UTC(),
	}

	repo := &mockSessionRepo{
		getByTokenFunc:     func(string) (*models.Session, error) { return session, nil },
		updateActivityFunc: func(uuid.UUID, time.Time, time.Time) error { return errors.New("write failed") },
	}

	svc := newSessionService(t, repo)
	if !svc.ValidateSession("token", userID) {
		t.Errorf("a failed activity refresh must not invalidate a live session")
	}
}

func TestTerminateByIDIdempotent(t *testing.T) {
	session := &models.Session{ID: uuid.New(), UserID: uuid.New(), Active: false}

	terminations := 0
	repo := &mockSessionRepo{
		getByIDFunc: func(uuid.UUID) (*models.Session, error) { return session, nil },
		terminateFunc: func(uuid.UUID, time.Time, string) error {
			terminations++
			return nil
		},
	}

	svc := newSessionService(t, repo)
	if err := svc.TerminateByID(session.ID, services.ReasonManual); err != nil {
		t.Fatalf("first terminate: %v", err)
	}
	if err := svc.TerminateByID(session.ID, services.ReasonManual); err != nil {
		t.Fatalf("second terminate: %v", err)
	}
}

func TestTerminateUnknownSessionIsNoop(t *testing.T) {
	repo := &mockSessionRepo{
		getByIDFunc: func(uuid.UUID) (*models.Session, error) { return nil, nil },
	}

	svc := newSessionService(t, repo)
	if err := svc.TerminateByID(uuid.New(), services.ReasonManual); err != nil {
		t.Errorf("terminating an unknown session should succeed, got %v", err)
	}
}

func TestActiveSessionCountUsesCache(t *testing.T) {
	userID := uuid.New()

	queries := 0
	repo := &mockSessionRepo{
		countActiveFunc: func(uuid.UUID, time.Time) (int64, error) {
			queries++
			return 1, nil
		},
	}

	svc := newSessionService(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		count, err := svc.ActiveSessionCount(ctx, userID)
		if err != nil {
			t.Fatalf("ActiveSessionCount: %v", err)
		}
		if count != 1 {
			t.Fatalf("count = %d, want 1", count)
		}
	}

	if queries != 1 {
		t.Errorf("store queried %d times, want 1 (cache should serve repeats)", queries)
	}
}

func TestTerminateAllInvalidatesCount(t *testing.T) {
	userID := uuid.New()

	count := int64(1)
	repo := &mockSessionRepo{
		countActiveFunc: func(uuid.UUID, time.Time) (int64, error) {
			return count, nil
		},
		terminateAllFunc: func(uuid.UUID, time.Time, string) error {
			count = 0
			return nil
		},
	}

	svc := newSessionService(t, repo)
	ctx := context.Background()

	if got, _ := svc.ActiveSessionCount(ctx, userID); got != 1 {
		t.Fatalf("initial count = %d, want 1", got)
	}

	if err := svc.TerminateAllSessions(userID, services.ReasonAllEnded); err != nil {
		t.Fatalf("TerminateAllSessions: %v", err)
	}

	if got, _ := svc.ActiveSessionCount(ctx, userID); got != 0 {
		t.Errorf("count after terminate-all = %d, want 0 (cache must be invalidated)", got)
	}
}
