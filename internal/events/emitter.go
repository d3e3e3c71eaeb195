package events

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Emit delivers an event to the frontend. It is a no-op until the desktop
// runtime is enabled, which keeps services usable headless and in tests.
var Emit = func(ctx context.Context, name string, evt SettingsEvent) {}

// EnableRuntimeEmitter routes events through the Wails runtime. ctx must be
// the context handed to OnStartup.
func EnableRuntimeEmitter() {
	Emit = func(ctx context.Context, name string, evt SettingsEvent) {
		runtime.EventsEmit(ctx, name, evt)
		logRuntimeEvent(ctx, name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt SettingsEvent)) {
	if f == nil {
		Emit = func(context.Context, string, SettingsEvent) {}
		return
	}
	Emit = f
}
