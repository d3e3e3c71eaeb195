package bridge

import (
	"context"
	"errors"

	"braindrive-settings/internal/models"
)

// ErrDefinitionExists is returned by RegisterSettingDefinition for an id that
// is already registered. Callers treat it as success.
var ErrDefinitionExists = errors.New("setting definition already exists")

// ErrNotFound is returned by GetSetting when no value is stored for the key.
var ErrNotFound = errors.New("setting not found")

// Scope narrows a setting lookup. A nil scope means the user scope of the
// current user.
type Scope struct {
	Scope  string `json:"scope,omitempty"`
	UserID string `json:"user_id,omitempty"`
	PageID string `json:"page_id,omitempty"`
}

// SettingsBridge is the host's settings service.
//
// Values are opaque: an implementation may hand back a decoded object, raw
// JSON bytes or a pre-serialized JSON string for the same setting.
type SettingsBridge interface {
	GetSetting(ctx context.Context, key string, scope *Scope) (any, error)
	SetSetting(ctx context.Context, key string, value any, scope *Scope) error
	Subscribe(key string, fn func(value any)) (unsubscribe func())
	SubscribeToCategory(category string, fn func(key string, value any)) (unsubscribe func())
}

// DefinitionFilter selects definitions by id and/or category.
type DefinitionFilter struct {
	ID       string
	Category string
}

// DefinitionRegistry is implemented by bridges that accept setting
// definitions. It is optional and detected with a type assertion.
type DefinitionRegistry interface {
	RegisterSettingDefinition(ctx context.Context, def models.SettingDefinition) error
	GetSettingDefinitions(ctx context.Context, filter DefinitionFilter) ([]models.SettingDefinition, error)
}
