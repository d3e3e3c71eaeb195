package models

const (
	DefaultPageSetting = "default_page"
	DefaultPageValue   = "Dashboard"
	DefaultPageHelp    = "This is the first page to be displayed after logging in to BrainDrive"
)

// GeneralSetting is one named entry of the general_settings value. The field
// names on the wire are fixed by the host.
type GeneralSetting struct {
	SettingName string `json:"Setting_Name"`
	SettingData string `json:"Setting_Data"`
	SettingHelp string `json:"Setting_Help"`
}

type GeneralSettings struct {
	Settings []GeneralSetting `json:"settings"`
}

// DefaultGeneralSettings is applied when nothing could be loaded.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{Settings: []GeneralSetting{{
		SettingName: DefaultPageSetting,
		SettingData: DefaultPageValue,
		SettingHelp: DefaultPageHelp,
	}}}
}

// Get returns the setting with the given name.
func (g GeneralSettings) Get(name string) (GeneralSetting, bool) {
	for _, s := range g.Settings {
		if s.SettingName == name {
			return s, true
		}
	}
	return GeneralSetting{}, false
}

// With returns a copy where the named setting carries data. Unknown names are
// appended; the help text of an existing entry is kept.
func (g GeneralSettings) With(name, data, help string) GeneralSettings {
	out := GeneralSettings{Settings: make([]GeneralSetting, 0, len(g.Settings)+1)}
	found := false
	for _, s := range g.Settings {
		if s.SettingName == name {
			s.SettingData = data
			if s.SettingHelp == "" {
				s.SettingHelp = help
			}
			found = true
		}
		out.Settings = append(out.Settings, s)
	}
	if !found {
		out.Settings = append(out.Settings, GeneralSetting{SettingName: name, SettingData: data, SettingHelp: help})
	}
	return out
}
