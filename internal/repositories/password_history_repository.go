package repositories

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PasswordHistoryRepository interface {
	Append(entry *models.PasswordHistory) error
	RecentHashes(userID uuid.UUID, limit int) ([]string, error)
	// PruneOld removes everything but the most recent keep entries.
	PruneOld(userID uuid.UUID, keep int) error
}

type passwordHistoryRepository struct {
	db *gorm.DB
}

func NewPasswordHistoryRepository(db *gorm.DB) PasswordHistoryRepository {
	return &passwordHistoryRepository{db: db}
}

func (r *passwordHistoryRepository) Append(entry *models.PasswordHistory) error {
	return r.db.Create(entry).Error
}

func (r *passwordHistoryRepository) RecentHashes(userID uuid.UUID, limit int) ([]string, error) {
	var hashes []string
	err := r.db.Model(&models.PasswordHistory{}).
		Where("user_id = ?", userID).
		Order("changed_at DESC").
		Limit(limit).
		Pluck("password_hash", &hashes).Error
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

func (r *passwordHistoryRepository) PruneOld(userID uuid.UUID, keep int) error {
	var keepIDs []uint
	err := r.db.Model(&models.PasswordHistory{}).
		Where("user_id = ?", userID).
		Order("changed_at DESC").
		Limit(keep).
		Pluck("id", &keepIDs).Error
	if err != nil {
		return err
	}
	if len(keepIDs) == 0 {
		return nil
	}

	return r.db.
		Where("user_id = ? AND id NOT IN ?", userID, keepIDs).
		Delete(&models.PasswordHistory{}).Error
}
