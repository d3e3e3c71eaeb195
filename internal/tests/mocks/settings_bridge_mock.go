package mocks

import (
	"context"
	"sync"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/models"
)

type SettingsBridgeMock struct {
	GetSettingFunc          func(ctx context.Context, key string, scope *bridge.Scope) (any, error)
	SetSettingFunc          func(ctx context.Context, key string, value any, scope *bridge.Scope) error
	SubscribeFunc           func(key string, fn func(value any)) func()
	SubscribeToCategoryFunc func(category string, fn func(key string, value any)) func()

	mu       sync.Mutex
	handlers map[string][]func(any)
}

func (m *SettingsBridgeMock) GetSetting(ctx context.Context, key string, scope *bridge.Scope) (any, error) {
	if m.GetSettingFunc != nil {
		return m.GetSettingFunc(ctx, key, scope)
	}
	return nil, bridge.ErrNotFound
}

func (m *SettingsBridgeMock) SetSetting(ctx context.Context, key string, value any, scope *bridge.Scope) error {
	if m.SetSettingFunc != nil {
		return m.SetSettingFunc(ctx, key, value, scope)
	}
	return nil
}

// Subscribe records the handler so tests can Push to it.
func (m *SettingsBridgeMock) Subscribe(key string, fn func(value any)) func() {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(key, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string][]func(any))
	}
	m.handlers[key] = append(m.handlers[key], fn)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, key)
	}
}

func (m *SettingsBridgeMock) SubscribeToCategory(category string, fn func(key string, value any)) func() {
	if m.SubscribeToCategoryFunc != nil {
		return m.SubscribeToCategoryFunc(category, fn)
	}
	return func() {}
}

// Push delivers value to every handler subscribed to key.
func (m *SettingsBridgeMock) Push(key string, value any) {
	m.mu.Lock()
	fns := append([]func(any){}, m.handlers[key]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(value)
	}
}

// RegistryBridgeMock is a SettingsBridgeMock that also accepts definitions.
type RegistryBridgeMock struct {
	SettingsBridgeMock
	RegisterSettingDefinitionFunc func(ctx context.Context, def models.SettingDefinition) error
	GetSettingDefinitionsFunc     func(ctx context.Context, filter bridge.DefinitionFilter) ([]models.SettingDefinition, error)
}

func (m *RegistryBridgeMock) RegisterSettingDefinition(ctx context.Context, def models.SettingDefinition) error {
	if m.RegisterSettingDefinitionFunc != nil {
		return m.RegisterSettingDefinitionFunc(ctx, def)
	}
	return nil
}

func (m *RegistryBridgeMock) GetSettingDefinitions(ctx context.Context, filter bridge.DefinitionFilter) ([]models.SettingDefinition, error) {
	if m.GetSettingDefinitionsFunc != nil {
		return m.GetSettingDefinitionsFunc(ctx, filter)
	}
	return nil, nil
}
