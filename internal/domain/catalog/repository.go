package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the read side of salons and services used by the booking core.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetSalon(ctx context.Context, id string) (*Salon, error) {
	var s Salon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetService(ctx context.Context, id string) (*Service, error) {
	var s Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SalonIDsByOwner lists the salons a manager owns.
func (r *Repository) SalonIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&Salon{}).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
