package unit_tests

import (
	"context"
	"sync"
	"testing"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/tests/mocks"
)

type emitted struct {
	Name  string
	Event events.SettingsEvent
}

// captureEvents records everything the services emit until the test ends.
func captureEvents(t *testing.T) func() []emitted {
	t.Helper()
	var (
		mu  sync.Mutex
		got []emitted
	)
	events.SetCustomEmitter(func(ctx context.Context, name string, evt events.SettingsEvent) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, emitted{Name: name, Event: evt})
	})
	t.Cleanup(func() { events.SetCustomEmitter(nil) })
	return func() []emitted {
		mu.Lock()
		defer mu.Unlock()
		return append([]emitted(nil), got...)
	}
}

// memoryBridge is a settings bridge that keeps values in a map and pushes
// every write to subscribers, like the host does.
func memoryBridge(initial map[string]any) (*mocks.SettingsBridgeMock, func(key string) any) {
	var mu sync.Mutex
	values := map[string]any{}
	for k, v := range initial {
		values[k] = v
	}
	m := &mocks.SettingsBridgeMock{}
	m.GetSettingFunc = func(ctx context.Context, key string, scope *bridge.Scope) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		v, ok := values[key]
		if !ok {
			return nil, bridge.ErrNotFound
		}
		return v, nil
	}
	m.SetSettingFunc = func(ctx context.Context, key string, value any, scope *bridge.Scope) error {
		mu.Lock()
		values[key] = value
		mu.Unlock()
		m.Push(key, value)
		return nil
	}
	return m, func(key string) any {
		mu.Lock()
		defer mu.Unlock()
		return values[key]
	}
}
