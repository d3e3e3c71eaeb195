package bridge_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/database"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/repositories"
)

func newLocalSettings(t *testing.T) *bridge.LocalSettings {
	t.Helper()
	db, err := database.Init(database.Config{
		Path:     filepath.Join(t.TempDir(), "settings.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return bridge.NewLocalSettings(repositories.NewSettingRepository(db), "")
}

func generalDefinition() models.SettingDefinition {
	return models.SettingDefinition{
		ID:            "general_settings",
		Name:          "General Settings",
		Category:      "general",
		Type:          "object",
		DefaultValue:  `{"settings":[{"Setting_Name":"default_page","Setting_Data":"Dashboard","Setting_Help":""}]}`,
		AllowedScopes: []string{models.ScopeSystem, models.ScopeUser},
	}
}

func TestLocalSettings_RegisterIsIdempotent(t *testing.T) {
	s := newLocalSettings(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterSettingDefinition(ctx, generalDefinition()))
	err := s.RegisterSettingDefinition(ctx, generalDefinition())
	assert.ErrorIs(t, err, bridge.ErrDefinitionExists)

	defs, err := s.GetSettingDefinitions(ctx, bridge.DefinitionFilter{Category: "general"})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, []string{models.ScopeSystem, models.ScopeUser}, defs[0].AllowedScopes)
}

func TestLocalSettings_GetReportsNothingStored(t *testing.T) {
	s := newLocalSettings(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "general_settings", nil)
	assert.ErrorIs(t, err, bridge.ErrNotFound)

	require.NoError(t, s.RegisterSettingDefinition(ctx, generalDefinition()))
	_, err = s.GetSetting(ctx, "general_settings", nil)
	assert.ErrorIs(t, err, bridge.ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, "general_settings", `{"settings":[]}`, nil))
	v, err := s.GetSetting(ctx, "general_settings", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"settings":[]}`, v)
}

func TestLocalSettings_SetThenGetPerScope(t *testing.T) {
	s := newLocalSettings(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterSettingDefinition(ctx, generalDefinition()))

	require.NoError(t, s.SetSetting(ctx, "general_settings", map[string]any{"settings": []any{}}, nil))
	require.NoError(t, s.SetSetting(ctx, "general_settings", `{"settings":[{"Setting_Name":"default_page","Setting_Data":"home"}]}`, nil))
	require.NoError(t, s.SetSetting(ctx, "general_settings", `{"settings":[]}`, &bridge.Scope{UserID: "other"}))

	v, err := s.GetSetting(ctx, "general_settings", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"settings":[{"Setting_Name":"default_page","Setting_Data":"home"}]}`, v.(string))

	v, err = s.GetSetting(ctx, "general_settings", &bridge.Scope{UserID: "other"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"settings":[]}`, v.(string))
}

func TestLocalSettings_PublishesToKeyAndCategorySubscribers(t *testing.T) {
	s := newLocalSettings(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterSettingDefinition(ctx, generalDefinition()))

	var byKey []any
	var byCategory []string
	unsubscribe := s.Subscribe("general_settings", func(v any) { byKey = append(byKey, v) })
	stop := s.SubscribeToCategory("general", func(key string, v any) { byCategory = append(byCategory, key) })
	defer stop()

	require.NoError(t, s.SetSetting(ctx, "general_settings", map[string]string{"a": "b"}, nil))
	unsubscribe()
	require.NoError(t, s.SetSetting(ctx, "general_settings", `{"a":"c"}`, nil))

	require.Len(t, byKey, 1)
	assert.JSONEq(t, `{"a":"b"}`, byKey[0].(string))
	assert.Equal(t, []string{"general_settings", "general_settings"}, byCategory)
}
