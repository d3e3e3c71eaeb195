package models

import "time"

const (
	ScopeUser   = "user"
	ScopeSystem = "system"

	// CurrentUser is resolved by the host to the authenticated user.
	CurrentUser = "current"
)

// SettingDefinition describes a named setting and its default value.
type SettingDefinition struct {
	ID            string    `gorm:"primaryKey;size:120" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `json:"description"`
	Category      string    `gorm:"size:120;index" json:"category"`
	Type          string    `gorm:"size:50" json:"type"`
	DefaultValue  string    `gorm:"type:text" json:"default_value"`
	AllowedScopes []string  `gorm:"serializer:json" json:"allowed_scopes"`
	IsMultiple    bool      `json:"is_multiple"`
	Tags          []string  `gorm:"serializer:json" json:"tags"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// SettingInstance is a concrete value for a definition in one scope.
type SettingInstance struct {
	ID           string    `gorm:"primaryKey;size:64"`
	DefinitionID string    `gorm:"size:120;not null;uniqueIndex:idx_instance_scope"`
	Name         string    `gorm:"size:255"`
	Value        string    `gorm:"type:text"`
	Scope        string    `gorm:"size:30;not null;uniqueIndex:idx_instance_scope"`
	UserID       string    `gorm:"size:120;not null;uniqueIndex:idx_instance_scope"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
