package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"braindrive-settings/internal/bridge"
)

func TestThemeManager_ToggleTwiceRestoresTheme(t *testing.T) {
	m := bridge.NewThemeManager("dark")
	m.ToggleTheme()
	assert.Equal(t, "light", m.GetCurrentTheme())
	m.ToggleTheme()
	assert.Equal(t, "dark", m.GetCurrentTheme())
}

func TestThemeManager_NormalizesUnknownThemes(t *testing.T) {
	m := bridge.NewThemeManager("sepia")
	assert.Equal(t, "light", m.GetCurrentTheme())
}

func TestThemeManager_ListenersOnlySeeChanges(t *testing.T) {
	m := bridge.NewThemeManager("light")
	var seen []string
	id := m.AddThemeChangeListener(func(theme string) { seen = append(seen, theme) })

	m.SetTheme("light")
	m.SetTheme("dark")
	m.ToggleTheme()
	m.RemoveThemeChangeListener(id)
	m.SetTheme("dark")

	assert.Equal(t, []string{"dark", "light"}, seen)
}

func TestThemeManager_ListenerMayCallBack(t *testing.T) {
	m := bridge.NewThemeManager("light")
	var current string
	m.AddThemeChangeListener(func(string) { current = m.GetCurrentTheme() })

	m.SetTheme("dark")
	assert.Equal(t, "dark", current)
}

func TestCapability(t *testing.T) {
	var tb bridge.ThemeBridge
	assert.False(t, bridge.Negotiate(tb).Available())

	tb = bridge.NewThemeManager("dark")
	c := bridge.Negotiate(tb)
	got, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, "dark", got.GetCurrentTheme())

	_, ok = bridge.Unavailable[bridge.ThemeBridge]().Get()
	assert.False(t, ok)
}
