package services

import (
	"context"
	"sync"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/preference"
)

// ThemeState is what the theme panel renders.
type ThemeState struct {
	Theme          string            `json:"theme" yaml:"theme"`
	UseSystemTheme bool              `json:"useSystemTheme" yaml:"useSystemTheme"`
	Source         preference.Source `json:"source" yaml:"source"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
}

type ThemeService interface {
	Startup(ctx context.Context)
	Shutdown()
	GetState() ThemeState
	ToggleTheme() (ThemeState, error)
	SetUseSystemTheme(enabled bool) (ThemeState, error)
}

type themeService struct {
	context context.Context
	pref    *preference.Remote[models.ThemePreference]
	theme   bridge.Capability[bridge.ThemeBridge]
	log     *logger.Logger

	mu          sync.Mutex
	state       ThemeState
	listenerID  int
	listening   bool
	unsubscribe func()
}

func NewThemeService(pref *preference.Remote[models.ThemePreference], theme bridge.Capability[bridge.ThemeBridge], log *logger.Logger) ThemeService {
	if log == nil {
		log = logger.Nop()
	}
	return &themeService{
		context: context.Background(),
		pref:    pref,
		theme:   theme,
		log:     log.WithFields("panel", "theme"),
		state:   ThemeState{Theme: models.ThemeLight, Source: preference.SourceDefault},
	}
}

// Startup loads the stored preference and starts following both the theme
// bridge and settings push updates.
func (s *themeService) Startup(ctx context.Context) {
	s.context = ctx

	res := s.pref.Load(ctx)
	state := ThemeState{
		Theme:          models.NormalizeTheme(res.Value.Theme),
		UseSystemTheme: res.Value.UseSystemTheme,
		Source:         res.Source,
		Error:          res.Err,
	}

	tb, hasTheme := s.theme.Get()
	if hasTheme {
		if res.Source == preference.SourceDefault {
			// Nothing stored yet; the host's current theme wins.
			state.Theme = models.NormalizeTheme(tb.GetCurrentTheme())
		} else {
			tb.SetTheme(state.Theme)
		}
	}

	s.mu.Lock()
	s.state = state
	if hasTheme && !s.listening {
		s.listenerID = tb.AddThemeChangeListener(s.onHostTheme)
		s.listening = true
	}
	if s.unsubscribe == nil {
		s.unsubscribe = s.pref.Subscribe(s.onPush)
	}
	s.mu.Unlock()

	if res.Err != "" {
		s.log.Warn("theme preference not loaded", "reason", res.Err)
	}
	s.emit(state)
}

func (s *themeService) Shutdown() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	listening, id := s.listening, s.listenerID
	s.listening = false
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if tb, ok := s.theme.Get(); ok && listening {
		tb.RemoveThemeChangeListener(id)
	}
}

func (s *themeService) GetState() ThemeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *themeService) ToggleTheme() (ThemeState, error) {
	s.mu.Lock()
	next := s.current().Toggled()
	s.mu.Unlock()
	return s.apply(next)
}

func (s *themeService) SetUseSystemTheme(enabled bool) (ThemeState, error) {
	s.mu.Lock()
	next := s.current()
	next.UseSystemTheme = enabled
	s.mu.Unlock()
	return s.apply(next)
}

// apply updates the host theme right away and then persists. A failed save
// keeps the new theme on screen and records the error.
func (s *themeService) apply(next models.ThemePreference) (ThemeState, error) {
	s.mu.Lock()
	s.state.Theme = next.Theme
	s.state.UseSystemTheme = next.UseSystemTheme
	s.mu.Unlock()

	if tb, ok := s.theme.Get(); ok {
		tb.SetTheme(next.Theme)
	}

	err := s.pref.Save(s.context, next)

	s.mu.Lock()
	s.state.Error = preference.SaveMessage(err)
	state := s.state
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("save theme preference")
	}
	s.emit(state)
	return state, err
}

// onHostTheme follows theme changes made elsewhere in the host.
func (s *themeService) onHostTheme(theme string) {
	theme = models.NormalizeTheme(theme)
	s.mu.Lock()
	if s.state.Theme == theme {
		s.mu.Unlock()
		return
	}
	s.state.Theme = theme
	state := s.state
	s.mu.Unlock()
	s.emit(state)
}

// onPush applies a value saved by another instance of the panel.
func (s *themeService) onPush(p models.ThemePreference) {
	s.mu.Lock()
	if s.state.Theme == p.Theme && s.state.UseSystemTheme == p.UseSystemTheme {
		s.mu.Unlock()
		return
	}
	s.state.Theme = p.Theme
	s.state.UseSystemTheme = p.UseSystemTheme
	s.state.Error = ""
	state := s.state
	s.mu.Unlock()

	if tb, ok := s.theme.Get(); ok {
		tb.SetTheme(p.Theme)
	}
	s.emit(state)
}

func (s *themeService) current() models.ThemePreference {
	return models.ThemePreference{Theme: s.state.Theme, UseSystemTheme: s.state.UseSystemTheme}
}

func (s *themeService) emit(state ThemeState) {
	evt := events.New(events.EventInfo, s.pref.Key(), state)
	if state.Error != "" {
		evt.Type = events.EventError
		evt.Message = state.Error
	}
	events.Emit(s.context, events.ThemeChanged, evt)
}
