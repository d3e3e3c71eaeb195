package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/preference"
)

type GeneralState struct {
	DefaultPage string                 `json:"defaultPage" yaml:"defaultPage"`
	Settings    models.GeneralSettings `json:"settings" yaml:"settings"`
	Source      preference.Source      `json:"source" yaml:"source"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

type GeneralSettingsService interface {
	Startup(ctx context.Context)
	Shutdown()
	GetState() GeneralState
	SetDefaultPage(page string) (GeneralState, error)
	ListPages(page, pageSize int) (models.PageList, error)
}

type generalSettingsService struct {
	context context.Context
	pref    *preference.Remote[models.GeneralSettings]
	api     bridge.Capability[hostapi.API]
	log     *logger.Logger

	mu          sync.Mutex
	state       GeneralState
	unsubscribe func()
}

func NewGeneralSettingsService(pref *preference.Remote[models.GeneralSettings], api bridge.Capability[hostapi.API], log *logger.Logger) GeneralSettingsService {
	if log == nil {
		log = logger.Nop()
	}
	return &generalSettingsService{
		context: context.Background(),
		pref:    pref,
		api:     api,
		log:     log.WithFields("panel", "general"),
		state:   stateFromGeneral(models.DefaultGeneralSettings(), preference.SourceDefault, ""),
	}
}

func (s *generalSettingsService) Startup(ctx context.Context) {
	s.context = ctx
	res := s.pref.Load(ctx)
	state := stateFromGeneral(res.Value, res.Source, res.Err)

	s.mu.Lock()
	s.state = state
	if s.unsubscribe == nil {
		s.unsubscribe = s.pref.Subscribe(s.onPush)
	}
	s.mu.Unlock()

	if res.Err != "" {
		s.log.Warn("general settings not loaded", "reason", res.Err)
	}
	s.emit(state)
}

func (s *generalSettingsService) Shutdown() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *generalSettingsService) GetState() GeneralState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetDefaultPage stores the page shown after login. The selection stays on
// screen when the save fails.
func (s *generalSettingsService) SetDefaultPage(page string) (GeneralState, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return s.GetState(), errors.New("default page is required")
	}

	s.mu.Lock()
	next := s.state.Settings.With(models.DefaultPageSetting, page, models.DefaultPageHelp)
	s.state.Settings = next
	s.state.DefaultPage = page
	s.mu.Unlock()

	err := s.pref.Save(s.context, next)

	s.mu.Lock()
	s.state.Error = preference.SaveMessage(err)
	state := s.state
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("save general settings")
	}
	s.emit(state)
	return state, err
}

// ListPages returns the host pages that can be picked as the default page.
func (s *generalSettingsService) ListPages(page, pageSize int) (models.PageList, error) {
	api, ok := s.api.Get()
	if !ok {
		return models.PageList{Pages: []models.Page{}}, bridge.ErrUnavailable
	}
	list, err := hostapi.ListPages(s.context, api, hostapi.PageQuery{Page: page, PageSize: pageSize, PublishedOnly: true})
	if err != nil {
		s.log.Warn("list pages", "error", err)
		return models.PageList{Pages: []models.Page{}}, err
	}
	return list, nil
}

func (s *generalSettingsService) onPush(g models.GeneralSettings) {
	state := stateFromGeneral(g, preference.SourceBridge, "")
	s.mu.Lock()
	if s.state.DefaultPage == state.DefaultPage {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.emit(state)
}

func (s *generalSettingsService) emit(state GeneralState) {
	evt := events.New(events.EventInfo, s.pref.Key(), state)
	if state.Error != "" {
		evt.Type = events.EventError
		evt.Message = state.Error
	}
	events.Emit(s.context, events.GeneralChanged, evt)
}

func stateFromGeneral(g models.GeneralSettings, source preference.Source, errMsg string) GeneralState {
	page := models.DefaultPageValue
	if s, ok := g.Get(models.DefaultPageSetting); ok && strings.TrimSpace(s.SettingData) != "" {
		page = s.SettingData
	}
	return GeneralState{DefaultPage: page, Settings: g, Source: source, Error: errMsg}
}
