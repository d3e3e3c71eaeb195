package models

import "time"

// LocalPreference is a key/value row used when no remote store is reachable.
type LocalPreference struct {
	Key       string `gorm:"column:pref_key;primaryKey;size:120"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
