package services

import (
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/preference"
)

// The constructors below bind each panel's setting to its definition in the
// plugin manifest. Which stores are used is decided by opts.

func NewThemePreference(m *plugin.Manifest, opts preference.Options) *preference.Remote[models.ThemePreference] {
	def, _ := m.Definition(plugin.DefinitionTheme)
	return preference.New(preference.Setting[models.ThemePreference]{
		Key:        plugin.DefinitionTheme,
		Definition: def,
		Default:    models.ThemePreference{Theme: models.ThemeLight},
		Valid: func(p models.ThemePreference) bool {
			return p.Theme == models.ThemeLight || p.Theme == models.ThemeDark
		},
	}, opts)
}

func NewGeneralPreference(m *plugin.Manifest, opts preference.Options) *preference.Remote[models.GeneralSettings] {
	def, _ := m.Definition(plugin.DefinitionGeneral)
	return preference.New(preference.Setting[models.GeneralSettings]{
		Key:        plugin.DefinitionGeneral,
		Definition: def,
		Default:    models.DefaultGeneralSettings(),
		Valid: func(g models.GeneralSettings) bool {
			return g.Settings != nil
		},
	}, opts)
}

func NewServersPreference(m *plugin.Manifest, opts preference.Options) *preference.Remote[models.ServerSettings] {
	def, _ := m.Definition(plugin.DefinitionServers)
	return preference.New(preference.Setting[models.ServerSettings]{
		Key:        plugin.DefinitionServers,
		Definition: def,
		Default:    models.ServerSettings{Servers: []models.ServerConfig{}},
		Valid: func(s models.ServerSettings) bool {
			return s.Servers != nil
		},
	}, opts)
}
