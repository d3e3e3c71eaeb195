package preference

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/repositories"
)

type Source string

const (
	SourceBridge  Source = "bridge"
	SourceAPI     Source = "api"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Backend is one place a preference can be read from and written to.
// Load returns bridge.ErrNotFound when the store is reachable but holds no
// value for key.
type Backend interface {
	Source() Source
	Load(ctx context.Context, key string) (any, error)
	Save(ctx context.Context, key string, value any) error
}

type bridgeBackend struct {
	settings bridge.SettingsBridge
	scope    *bridge.Scope
}

func (b *bridgeBackend) Source() Source { return SourceBridge }

func (b *bridgeBackend) Load(ctx context.Context, key string) (any, error) {
	v, err := b.settings.GetSetting(ctx, key, b.scope)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, bridge.ErrNotFound
	}
	return v, nil
}

func (b *bridgeBackend) Save(ctx context.Context, key string, value any) error {
	return b.settings.SetSetting(ctx, key, value, b.scope)
}

// instanceBackend persists through the host's settings instances endpoint.
// The instance id found on load is reused on save so the existing record is
// updated rather than duplicated.
type instanceBackend struct {
	api    hostapi.API
	name   string
	scope  string
	userID string

	mu sync.Mutex
	id string
}

func (b *instanceBackend) Source() Source { return SourceAPI }

func (b *instanceBackend) Load(ctx context.Context, key string) (any, error) {
	inst, err := hostapi.FindInstance(ctx, b.api, key, b.scope, b.userID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, bridge.ErrNotFound
	}
	b.setID(inst.ID)
	return inst.Value, nil
}

func (b *instanceBackend) Save(ctx context.Context, key string, value any) error {
	id := b.getID()
	if id == "" {
		existing, err := hostapi.FindInstance(ctx, b.api, key, b.scope, b.userID)
		if err != nil {
			return fmt.Errorf("locate existing instance: %w", err)
		}
		if existing != nil {
			id = existing.ID
		}
	}

	text, err := Encode(value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(text)
	if err != nil {
		return err
	}

	saved, err := hostapi.SaveInstance(ctx, b.api, hostapi.Instance{
		ID:           id,
		DefinitionID: key,
		Name:         b.name,
		Value:        raw,
		Scope:        b.scope,
		UserID:       b.userID,
	})
	if err != nil {
		return err
	}
	b.setID(saved.ID)
	return nil
}

func (b *instanceBackend) getID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

func (b *instanceBackend) setID(id string) {
	if id == "" {
		return
	}
	b.mu.Lock()
	b.id = id
	b.mu.Unlock()
}

type localBackend struct {
	repo repositories.LocalPreferenceRepository
}

func (b *localBackend) Source() Source { return SourceLocal }

func (b *localBackend) Load(ctx context.Context, key string) (any, error) {
	pref, err := b.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, bridge.ErrNotFound
	}
	return pref.Value, nil
}

func (b *localBackend) Save(ctx context.Context, key string, value any) error {
	text, err := Encode(value)
	if err != nil {
		return err
	}
	return b.repo.Put(ctx, key, text)
}

func instanceName(def models.SettingDefinition, key string) string {
	if def.Name != "" {
		return def.Name
	}
	return key
}
