package repositories

import (
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(log *models.AuditLog) error
	ListForUser(userID uuid.UUID, since time.Time) ([]models.AuditLog, error)
	CountByAction(userID uuid.UUID, action string, since time.Time) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(log *models.AuditLog) error {
	return r.db.Create(log).Error
}

func (r *auditLogRepository) ListForUser(userID uuid.UUID, since time.Time) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.
		Where("user_id = ? AND timestamp >= ?", userID, since).
		Order("timestamp DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) CountByAction(userID uuid.UUID, action string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AuditLog{}).
		Where("user_id = ? AND action = ? AND timestamp >= ?", userID, action, since).
		Count(&count).Error
	return count, err
}
