package repositories

import (
	"errors"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	// ReplaceActiveSessions atomically terminates every active session of
	// the user, creates the new one, and points the user's
	// current_session_token at it. This is the unit behind the
	// single-active-session invariant.
	ReplaceActiveSessions(userID uuid.UUID, session *models.Session) error

	Create(session *models.Session) error
	GetByClientToken(clientToken string) (*models.Session, error)
	GetByID(id uuid.UUID) (*models.Session, error)
	GetActiveByUser(userID uuid.UUID) ([]models.Session, error)
	CountActive(userID uuid.UUID, activeSince time.Time) (int64, error)
	UpdateActivity(id uuid.UUID, lastActivity, expiresAt time.Time) error
	Terminate(id uuid.UUID, at time.Time, reason string) error
	TerminateAllForUser(userID uuid.UUID, at time.Time, reason string) error
}

type gormSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &gormSessionRepository{db: db}
}

func (r *gormSessionRepository) ReplaceActiveSessions(userID uuid.UUID, session *models.Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := terminateAllInTx(tx, userID, now, "Superseded By New Login"); err != nil {
			return err
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("current_session_token", session.ClientToken).Error
	})
}

func (r *gormSessionRepository) Create(session *models.Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", session.UserID).
			Update("current_session_token", session.ClientToken).Error
	})
}

func (r *gormSessionRepository) GetByClientToken(clientToken string) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, "client_token = ?", clientToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *gormSessionRepository) GetByID(id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *gormSessionRepository) GetActiveByUser(userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.
		Where("user_id = ? AND active = ?", userID, true).
		Order("last_activity_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *gormSessionRepository) CountActive(userID uuid.UUID, activeSince time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Session{}).
		Where("user_id = ? AND active = ? AND last_activity_at >= ?", userID, true, activeSince).
		Count(&count).Error
	return count, err
}

func (r *gormSessionRepository) UpdateActivity(id uuid.UUID, lastActivity, expiresAt time.Time) error {
	return r.db.Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity_at": lastActivity,
			"expires_at":       expiresAt,
		}).Error
}

// Terminate marks one session inactive and clears the owner's
// current-session pointer when it points at this session. Terminating an
// already-inactive session is a no-op.
func (r *gormSessionRepository) Terminate(id uuid.UUID, at time.Time, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.First(&session, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if !session.Active {
			return nil
		}

		err := tx.Model(&models.Session{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"active":             false,
				"terminated_at":      at,
				"termination_reason": reason,
			}).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ? AND current_session_token = ?", session.UserID, session.ClientToken).
			Update("current_session_token", nil).Error
	})
}

func (r *gormSessionRepository) TerminateAllForUser(userID uuid.UUID, at time.Time, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return terminateAllInTx(tx, userID, at, reason)
	})
}

func terminateAllInTx(tx *gorm.DB, userID uuid.UUID, at time.Time, reason string) error {
	err := tx.Model(&models.Session{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]interface{}{
			"active":             false,
			"terminated_at":      at,
			"termination_reason": reason,
		}).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("current_session_token", nil).Error
}
