package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	gormlogger "gorm.io/gorm/logger"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/config"
	"braindrive-settings/internal/database"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/services"
)

// session lazily builds the services for one command invocation.
type session struct {
	configPath string
	apiURL     string
	dbPath     string
	userID     string
	debug      bool

	cfg     *config.Config
	api     bridge.Capability[hostapi.API]
	svc     *services.Services
	closeDB func() error
}

func newRootCmd() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:   "settingsctl",
		Short: "Inspect and change BrainDrive settings from the terminal",
		Long: `settingsctl drives the same settings panels as the desktop app
against the BrainDrive host API: theme, model servers and models.

Values are read from and written to the host's settings instances, with
the theme also kept in the local database.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "YAML config file overlaying the environment")
	flags.StringVar(&s.apiURL, "api-url", "", "BrainDrive API base URL (default $BRAINDRIVE_API_URL)")
	flags.StringVar(&s.dbPath, "db", "", "local settings database (default $BRAINDRIVE_DB_PATH)")
	flags.StringVar(&s.userID, "user", "", "user the settings belong to (default $BRAINDRIVE_USER_ID)")
	flags.BoolVar(&s.debug, "debug", false, "log debug output to stderr")

	root.AddCommand(newServersCmd(s))
	root.AddCommand(newModelsCmd(s))
	root.AddCommand(newThemeCmd(s))
	root.AddCommand(newModulesCmd())
	root.AddCommand(newSeedCmd(s))
	return root
}

func (s *session) config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	cfg := config.Load()
	if s.configPath != "" {
		if err := cfg.MergeFile(s.configPath); err != nil {
			return nil, err
		}
	}
	if s.apiURL != "" {
		cfg.APIURL = s.apiURL
	}
	if s.dbPath != "" {
		cfg.DBPath = s.dbPath
	}
	if s.userID != "" {
		cfg.UserID = s.userID
	}
	cfg.Debug = cfg.Debug || s.debug
	s.cfg = cfg
	return cfg, nil
}

// services builds and starts the panels. The settings bridge only exists
// inside the desktop app, so everything goes through the host API.
func (s *session) services(ctx context.Context) (*services.Services, error) {
	if s.svc != nil {
		return s.svc, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if cfg.Debug {
		log = logger.Development()
	}

	db, err := database.Init(database.Config{Path: cfg.DBPath, LogLevel: gormlogger.Silent})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		s.closeDB = sqlDB.Close
	}

	var client hostapi.API
	if cfg.APIURL != "" {
		client = hostapi.New(cfg.APIURL,
			hostapi.WithToken(cfg.APIToken),
			hostapi.WithLogger(log),
		)
	}
	s.api = bridge.Negotiate(client)

	s.svc = services.NewServices(services.Deps{
		Settings:          bridge.Unavailable[bridge.SettingsBridge](),
		Theme:             bridge.Unavailable[bridge.ThemeBridge](),
		API:               s.api,
		DB:                db,
		UserID:            cfg.UserID,
		PollInterval:      cfg.PollInterval,
		VisibilityTimeout: cfg.VisibilityTimeout,
		VisibilityPoll:    cfg.VisibilityPoll,
		Logger:            log,
	})
	s.svc.Startup(ctx)
	return s.svc, nil
}

func (s *session) close() error {
	if s.svc != nil {
		s.svc.Shutdown()
		s.svc = nil
	}
	if s.closeDB != nil {
		err := s.closeDB()
		s.closeDB = nil
		return err
	}
	return nil
}

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the settings panels this plugin provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := plugin.Load()
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), m.Modules)
		},
	}
}

func newSeedCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default settings the user does not have yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.services(cmd.Context()); err != nil {
				return err
			}
			api, ok := s.api.Get()
			if !ok {
				return fmt.Errorf("seed: %w: no API URL configured", bridge.ErrUnavailable)
			}
			created, err := plugin.Seed(cmd.Context(), plugin.MustLoad(), api, s.cfg.UserID)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), map[string][]string{"created": created})
		},
	}
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
