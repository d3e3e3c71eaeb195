package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/preference"
	"braindrive-settings/internal/repositories"
)

// Deps are the host capabilities the panels are built from. Any capability
// may be unavailable; DB and Secrets may be nil.
type Deps struct {
	Settings bridge.Capability[bridge.SettingsBridge]
	Theme    bridge.Capability[bridge.ThemeBridge]
	API      bridge.Capability[hostapi.API]
	DB       *gorm.DB
	Secrets  SecretStore
	Manifest *plugin.Manifest
	UserID   string

	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	VisibilityPoll    time.Duration

	Logger *logger.Logger
}

// Services aggregates the settings panels.
type Services struct {
	Theme   ThemeService
	General GeneralSettingsService
	Servers ServerService
	Models  ModelService
}

// NewServices wires every panel. The theme panel additionally keeps a copy
// in the local database so it survives without a host; the other panels only
// use the bridge and the host API.
func NewServices(d Deps) *Services {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	manifest := d.Manifest
	if manifest == nil {
		manifest = plugin.MustLoad()
	}

	remote := preference.Options{
		Bridge: d.Settings,
		API:    d.API,
		UserID: d.UserID,
		Logger: log,
	}
	themeOpts := remote
	if d.DB != nil {
		themeOpts.Local = repositories.NewLocalPreferenceRepository(d.DB)
	}

	var (
		client  *ollama.Client
		tracker *ollama.Tracker
	)
	if api, ok := d.API.Get(); ok {
		client = ollama.NewClient(api)
		tracker = ollama.NewTracker(
			ollama.NewStreamSource(client),
			ollama.NewPollSource(client, d.PollInterval, log),
			log,
		)
	}

	servers := NewServerService(NewServersPreference(manifest, remote), client, d.Secrets, log)
	return &Services{
		Theme:   NewThemeService(NewThemePreference(manifest, themeOpts), d.Theme, log),
		General: NewGeneralSettingsService(NewGeneralPreference(manifest, remote), d.API, log),
		Servers: servers,
		Models: NewModelService(servers, client, tracker, ModelOptions{
			VisibilityTimeout: d.VisibilityTimeout,
			VisibilityPoll:    d.VisibilityPoll,
		}, log),
	}
}

func (s *Services) Startup(ctx context.Context) {
	s.Theme.Startup(ctx)
	s.General.Startup(ctx)
	s.Servers.Startup(ctx)
	s.Models.Startup(ctx)
}

func (s *Services) Shutdown() {
	s.Theme.Shutdown()
	s.General.Shutdown()
	s.Servers.Shutdown()
}
