package models

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ThemePreference is the value stored under the theme_settings definition.
type ThemePreference struct {
	Theme          string `json:"theme"`
	UseSystemTheme bool   `json:"useSystemTheme"`
}

// NormalizeTheme maps anything that is not "dark" to "light".
func NormalizeTheme(theme string) string {
	if theme == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggled returns a copy with the opposite theme.
func (p ThemePreference) Toggled() ThemePreference {
	next := p
	if NormalizeTheme(p.Theme) == ThemeDark {
		next.Theme = ThemeLight
	} else {
		next.Theme = ThemeDark
	}
	return next
}
