package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"braindrive-settings/internal/models"
)

type LocalPreferenceRepository interface {
	Get(ctx context.Context, key string) (*models.LocalPreference, error)
	Put(ctx context.Context, key, value string) error
}

type localPreferenceRepository struct {
	db *gorm.DB
}

func NewLocalPreferenceRepository(db *gorm.DB) LocalPreferenceRepository {
	return &localPreferenceRepository{db: db}
}

// Get returns nil, nil when nothing is stored under key.
func (r *localPreferenceRepository) Get(ctx context.Context, key string) (*models.LocalPreference, error) {
	var pref models.LocalPreference
	if err := r.db.WithContext(ctx).Where("pref_key = ?", key).Take(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *localPreferenceRepository) Put(ctx context.Context, key, value string) error {
	pref := models.LocalPreference{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}
