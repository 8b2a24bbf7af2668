package repositories

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/google/uuid"
)

type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uuid.UUID) error
	ExistsByEmail(email string) (bool, error)
}
