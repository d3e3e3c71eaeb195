package bridge

import (
	"sync"

	"braindrive-settings/internal/models"
)

// ThemeBridge is the host's theme service.
type ThemeBridge interface {
	GetCurrentTheme() string
	SetTheme(theme string)
	ToggleTheme()
	AddThemeChangeListener(fn func(theme string)) int
	RemoveThemeChangeListener(id int)
}

// ThemeManager is an in-process ThemeBridge. Listeners are called
// synchronously, outside the lock, in registration order.
type ThemeManager struct {
	mu        sync.Mutex
	theme     string
	nextID    int
	listeners map[int]func(string)
	order     []int
}

func NewThemeManager(initial string) *ThemeManager {
	return &ThemeManager{
		theme:     models.NormalizeTheme(initial),
		listeners: make(map[int]func(string)),
	}
}

func (m *ThemeManager) GetCurrentTheme() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme
}

func (m *ThemeManager) SetTheme(theme string) {
	theme = models.NormalizeTheme(theme)
	m.mu.Lock()
	if m.theme == theme {
		m.mu.Unlock()
		return
	}
	m.theme = theme
	fns := m.snapshot()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(theme)
	}
}

func (m *ThemeManager) ToggleTheme() {
	if m.GetCurrentTheme() == models.ThemeDark {
		m.SetTheme(models.ThemeLight)
		return
	}
	m.SetTheme(models.ThemeDark)
}

func (m *ThemeManager) AddThemeChangeListener(fn func(theme string)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = fn
	m.order = append(m.order, m.nextID)
	return m.nextID
}

func (m *ThemeManager) RemoveThemeChangeListener(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *ThemeManager) snapshot() []func(string) {
	fns := make([]func(string), 0, len(m.order))
	for _, id := range m.order {
		fns = append(fns, m.listeners[id])
	}
	return fns
}
