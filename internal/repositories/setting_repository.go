package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"braindrive-settings/internal/models"
)

type SettingRepository interface {
	// CreateDefinition inserts def unless the id exists. It reports whether a
	// row was created.
	CreateDefinition(ctx context.Context, def *models.SettingDefinition) (bool, error)
	GetDefinition(ctx context.Context, id string) (*models.SettingDefinition, error)
	ListDefinitions(ctx context.Context, id, category string) ([]models.SettingDefinition, error)
	GetInstance(ctx context.Context, definitionID, scope, userID string) (*models.SettingInstance, error)
	UpsertInstance(ctx context.Context, inst *models.SettingInstance) error
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) CreateDefinition(ctx context.Context, def *models.SettingDefinition) (bool, error) {
	if def.ID == "" {
		return false, fmt.Errorf("definition id is required")
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(def)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *settingRepository) GetDefinition(ctx context.Context, id string) (*models.SettingDefinition, error) {
	var def models.SettingDefinition
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}

func (r *settingRepository) ListDefinitions(ctx context.Context, id, category string) ([]models.SettingDefinition, error) {
	var defs []models.SettingDefinition
	q := r.db.WithContext(ctx).Order("id")
	if id != "" {
		q = q.Where("id = ?", id)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *settingRepository) GetInstance(ctx context.Context, definitionID, scope, userID string) (*models.SettingInstance, error) {
	var inst models.SettingInstance
	err := r.db.WithContext(ctx).
		Where("definition_id = ? AND scope = ? AND user_id = ?", definitionID, scope, userID).
		Take(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}

func (r *settingRepository) UpsertInstance(ctx context.Context, inst *models.SettingInstance) error {
	if inst.DefinitionID == "" {
		return fmt.Errorf("definition id is required")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "definition_id"}, {Name: "scope"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "name", "updated_at"}),
	}).Create(inst).Error
}
