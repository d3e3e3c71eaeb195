package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/services"
)

// App struct
type App struct {
	ctx      context.Context
	manifest *plugin.Manifest
	services *services.Services
	api      bridge.Capability[hostapi.API]
	userID   string
	log      *logger.Logger
	dbClose  func() error
}

// NewApp creates a new App application struct
func NewApp(manifest *plugin.Manifest, svc *services.Services, api bridge.Capability[hostapi.API], userID string, log *logger.Logger) *App {
	return &App{
		manifest: manifest,
		services: svc,
		api:      api,
		userID:   userID,
		log:      log,
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	events.EnableRuntimeEmitter()
	a.services.Startup(ctx)
	runtime.LogInfo(ctx, fmt.Sprintf("settings panels ready: %v", a.manifest.ModuleNames()))
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	a.services.Shutdown()

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
	_ = a.log.Sync()
}

// Plugin returns the plugin metadata shown in the host's plugin manager.
func (a *App) Plugin() plugin.Info {
	return a.manifest.Plugin
}

// Modules returns the panels the frontend can mount, by their fixed names.
func (a *App) Modules() []plugin.Module {
	return a.manifest.Modules
}

// SeedDefaults creates the default setting instances the current user is
// missing on the host.
func (a *App) SeedDefaults() ([]string, error) {
	api, ok := a.api.Get()
	if !ok {
		return nil, bridge.ErrUnavailable
	}
	created, err := plugin.Seed(a.ctx, a.manifest, api, a.userID)
	if err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to seed settings: %v", err))
		return created, err
	}
	if len(created) > 0 {
		runtime.LogInfo(a.ctx, fmt.Sprintf("created default settings: %v", created))
	}
	return created, nil
}
