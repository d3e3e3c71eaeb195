package main

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	gormlogger "gorm.io/gorm/logger"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/config"
	"braindrive-settings/internal/database"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/repositories"
	"braindrive-settings/internal/services"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg := config.Load()
	log := logger.Production()
	if cfg.Debug {
		log = logger.Development()
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = database.GetDefaultDBPath()
	}
	dbLevel := gormlogger.Warn
	if cfg.Debug {
		dbLevel = gormlogger.Info
	}
	db, err := database.Init(database.Config{Path: dbPath, LogLevel: dbLevel})
	if err != nil {
		fmt.Println("Error opening database:", err)
		return
	}

	manifest := plugin.MustLoad()

	var client hostapi.API
	if cfg.APIURL != "" {
		client = hostapi.New(cfg.APIURL,
			hostapi.WithToken(cfg.APIToken),
			hostapi.WithLogger(log),
		)
	}
	api := bridge.Negotiate(client)

	var secrets services.SecretStore
	if cfg.UseKeyring {
		ks, err := services.OpenKeyringService(filepath.Dir(dbPath))
		if err != nil {
			log.Warn("keyring unavailable, api keys stay in settings", "error", err)
		} else {
			secrets = ks
		}
	}

	svc := services.NewServices(services.Deps{
		Settings:          bridge.Available[bridge.SettingsBridge](bridge.NewLocalSettings(repositories.NewSettingRepository(db), cfg.UserID)),
		Theme:             bridge.Available[bridge.ThemeBridge](bridge.NewThemeManager(models.ThemeLight)),
		API:               api,
		DB:                db,
		Secrets:           secrets,
		Manifest:          manifest,
		UserID:            cfg.UserID,
		PollInterval:      cfg.PollInterval,
		VisibilityTimeout: cfg.VisibilityTimeout,
		VisibilityPoll:    cfg.VisibilityPoll,
		Logger:            log,
	})

	app := NewApp(manifest, svc, api, cfg.UserID, log)
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:  manifest.Plugin.Name,
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "BrainDrive Settings",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			svc.Theme,
			svc.General,
			svc.Servers,
			svc.Models,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
