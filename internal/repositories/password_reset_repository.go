package repositories

import (
	"errors"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"gorm.io/gorm"
)

// ErrResetRequestConsumed is returned by Claim when the request was
// already used, expired, or never existed.
var ErrResetRequestConsumed = errors.New("reset request already consumed or expired")

type PasswordResetRepository interface {
	Create(req *models.PasswordResetRequest) error
	GetActiveByRequestID(requestID string, now time.Time) (*models.PasswordResetRequest, error)
	// Claim flips used/used_at exactly once; the server-side token must
	// still match the row, so a claim against a re-issued or swapped row
	// fails with ErrResetRequestConsumed like a second claim does.
	Claim(requestID, token string, now time.Time) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(req *models.PasswordResetRequest) error {
	return r.db.Create(req).Error
}

func (r *passwordResetRepository) GetActiveByRequestID(requestID string, now time.Time) (*models.PasswordResetRequest, error) {
	var req models.PasswordResetRequest
	err := r.db.
		Where("request_id = ? AND used = ? AND expires_at > ?", requestID, false, now).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *passwordResetRepository) Claim(requestID, token string, now time.Time) error {
	res := r.db.Model(&models.PasswordResetRequest{}).
		Where("request_id = ? AND token = ? AND used = ? AND expires_at > ?", requestID, token, false, now).
		Updates(map[string]interface{}{
			"used":    true,
			"used_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrResetRequestConsumed
	}
	return nil
}
