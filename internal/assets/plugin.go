package assets

import _ "embed"

// PluginManifest holds the module and settings definition catalogue.
//
//go:embed plugin.json
var PluginManifest []byte
