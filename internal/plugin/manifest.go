package plugin

import (
	"encoding/json"
	"fmt"
	"strings"

	"braindrive-settings/internal/assets"
	"braindrive-settings/internal/models"
)

const (
	DefinitionTheme   = "theme_settings"
	DefinitionGeneral = "general_settings"
	DefinitionServers = "ollama_servers_settings"

	ModuleTheme   = "ComponentTheme"
	ModuleGeneral = "ComponentGeneralSettings"
	ModuleServers = "ComponentOllamaServer"
)

// Info is the plugin-level metadata.
type Info struct {
	Name           string   `json:"name" yaml:"name"`
	Slug           string   `json:"slug" yaml:"slug"`
	Description    string   `json:"description" yaml:"description"`
	Version        string   `json:"version" yaml:"version"`
	Scope          string   `json:"scope" yaml:"scope"`
	BundleLocation string   `json:"bundleLocation" yaml:"bundleLocation"`
	SourceURL      string   `json:"sourceUrl" yaml:"sourceUrl"`
	Permissions    []string `json:"permissions" yaml:"permissions"`
}

// Layout is the default grid footprint of a module.
type Layout struct {
	MinWidth      int `json:"minWidth" yaml:"minWidth"`
	MinHeight     int `json:"minHeight" yaml:"minHeight"`
	DefaultWidth  int `json:"defaultWidth" yaml:"defaultWidth"`
	DefaultHeight int `json:"defaultHeight" yaml:"defaultHeight"`
}

// Module is one panel the host can load by name.
type Module struct {
	Name             string              `json:"name" yaml:"name"`
	DisplayName      string              `json:"displayName" yaml:"displayName"`
	Description      string              `json:"description" yaml:"description"`
	Icon             string              `json:"icon" yaml:"icon"`
	Category         string              `json:"category" yaml:"category"`
	RequiredServices map[string][]string `json:"requiredServices" yaml:"requiredServices"`
	Layout           Layout              `json:"layout" yaml:"layout"`
	Tags             []string            `json:"tags" yaml:"tags"`
}

type Manifest struct {
	Plugin      Info                       `json:"plugin" yaml:"plugin"`
	Modules     []Module                   `json:"modules" yaml:"modules"`
	Definitions []models.SettingDefinition `json:"definitions" yaml:"-"`
}

// Load parses the embedded manifest.
func Load() (*Manifest, error) {
	return Parse(assets.PluginManifest)
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse plugin manifest: %w", err)
	}
	seen := make(map[string]bool, len(m.Modules))
	for _, mod := range m.Modules {
		name := strings.TrimSpace(mod.Name)
		if name == "" {
			return nil, fmt.Errorf("parse plugin manifest: module without a name")
		}
		if seen[name] {
			return nil, fmt.Errorf("parse plugin manifest: duplicate module %s", name)
		}
		seen[name] = true
	}
	return &m, nil
}

// MustLoad is Load for package-level wiring where the embedded asset is
// known to be valid.
func MustLoad() *Manifest {
	m, err := Load()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Manifest) Definition(id string) (models.SettingDefinition, bool) {
	for _, def := range m.Definitions {
		if def.ID == id {
			return def, true
		}
	}
	return models.SettingDefinition{}, false
}

func (m *Manifest) Module(name string) (Module, bool) {
	for _, mod := range m.Modules {
		if mod.Name == name {
			return mod, true
		}
	}
	return Module{}, false
}

// ModuleNames returns the fixed names the host loads panels by.
func (m *Manifest) ModuleNames() []string {
	names := make([]string, 0, len(m.Modules))
	for _, mod := range m.Modules {
		names = append(names, mod.Name)
	}
	return names
}
