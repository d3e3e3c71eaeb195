package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/preference"
)

var ErrServerNotFound = errors.New("server not found")

const (
	defaultServerName    = "New Server"
	defaultServerAddress = "http://localhost:11434"
)

// ServerState is what the server management panel renders. Unsaved lists
// servers that only exist in memory.
type ServerState struct {
	Servers  []models.ServerConfig `json:"servers" yaml:"servers"`
	Unsaved  []string              `json:"unsaved,omitempty" yaml:"unsaved,omitempty"`
	Messages map[string]string     `json:"messages,omitempty" yaml:"messages,omitempty"`
	Source   preference.Source     `json:"source" yaml:"source"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
}

// ServerLookup resolves a configured server by id.
type ServerLookup interface {
	Server(id string) (models.ServerConfig, error)
}

type ServerService interface {
	ServerLookup
	Startup(ctx context.Context)
	Shutdown()
	ListServers() ServerState
	AddServer() models.ServerConfig
	UpdateServer(id string, patch models.ServerPatch) (models.ServerConfig, error)
	SaveServer(id string) (ServerState, error)
	DeleteServer(id string) (ServerState, error)
	TestConnection(id string) (ServerState, error)
}

type serverService struct {
	context context.Context
	pref    *preference.Remote[models.ServerSettings]
	client  *ollama.Client
	secrets SecretStore
	log     *logger.Logger
	now     func() time.Time

	mu          sync.Mutex
	servers     []models.ServerConfig
	stored      map[string]models.ServerConfig
	issued      map[string]bool
	messages    map[string]string
	source      preference.Source
	errMsg      string
	unsubscribe func()
}

// NewServerService builds the panel. client may be nil when the host API is
// unavailable and secrets may be nil to keep API keys in the settings value.
func NewServerService(pref *preference.Remote[models.ServerSettings], client *ollama.Client, secrets SecretStore, log *logger.Logger) ServerService {
	if log == nil {
		log = logger.Nop()
	}
	return &serverService{
		context:  context.Background(),
		pref:     pref,
		client:   client,
		secrets:  secrets,
		log:      log.WithFields("panel", "servers"),
		now:      time.Now,
		stored:   make(map[string]models.ServerConfig),
		issued:   make(map[string]bool),
		messages: make(map[string]string),
		source:   preference.SourceDefault,
	}
}

func (s *serverService) Startup(ctx context.Context) {
	s.context = ctx
	res := s.pref.Load(ctx)
	servers := s.rehydrate(res.Value.Servers)

	s.mu.Lock()
	s.servers = servers
	s.stored = make(map[string]models.ServerConfig, len(servers))
	for _, srv := range servers {
		s.stored[srv.ID] = srv
		s.issued[srv.ID] = true
	}
	s.source = res.Source
	s.errMsg = res.Err
	if s.unsubscribe == nil {
		s.unsubscribe = s.pref.Subscribe(s.onPush)
	}
	state := s.snapshot()
	s.mu.Unlock()

	if res.Err != "" {
		s.log.Warn("server settings not loaded", "reason", res.Err)
	}
	s.emit(state)
}

func (s *serverService) Shutdown() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *serverService) ListServers() ServerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *serverService) Server(id string) (models.ServerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return models.ServerConfig{}, fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	return s.servers[i], nil
}

// AddServer appends a server with default values. It is not persisted until
// SaveServer is called for it.
func (s *serverService) AddServer() models.ServerConfig {
	s.mu.Lock()
	srv := models.ServerConfig{
		ID:               s.newID(),
		ServerName:       defaultServerName,
		ServerAddress:    defaultServerAddress,
		ConnectionStatus: models.ConnectionIdle,
	}
	s.servers = append(s.servers, srv)
	state := s.snapshot()
	s.mu.Unlock()

	s.emit(state)
	return srv
}

// UpdateServer edits a server in memory. Editing resets its connection
// status because the last test no longer applies.
func (s *serverService) UpdateServer(id string, patch models.ServerPatch) (models.ServerConfig, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return models.ServerConfig{}, fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	srv := patch.Apply(s.servers[i])
	srv.ConnectionStatus = models.ConnectionIdle
	s.servers[i] = srv
	delete(s.messages, id)
	state := s.snapshot()
	s.mu.Unlock()

	s.emit(state)
	return srv, nil
}

// SaveServer validates the server and persists it together with the last
// saved version of every other saved server. Unsaved siblings and pending
// edits of saved siblings stay in memory only.
func (s *serverService) SaveServer(id string) (ServerState, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return s.ListServers(), fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	srv := s.servers[i]
	srv.ServerName = strings.TrimSpace(srv.ServerName)
	srv.ServerAddress = strings.TrimSpace(srv.ServerAddress)
	if err := validateServer(srv); err != nil {
		s.messages[id] = strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		state := s.snapshot()
		s.mu.Unlock()
		s.emit(state)
		return state, err
	}
	s.servers[i] = srv
	delete(s.messages, id)
	previous, wasSaved := s.stored[id]
	value := s.storedValue(&srv, "")
	s.mu.Unlock()

	err := s.persist(value)
	if err != nil {
		s.restoreKey(id, previous.APIKey, wasSaved)
	} else {
		s.mu.Lock()
		s.stored[id] = srv
		s.mu.Unlock()
	}
	return s.finish(err)
}

// DeleteServer removes exactly the server with id and persists the rest. A
// failed save leaves the row and its stored API key in place.
func (s *serverService) DeleteServer(id string) (ServerState, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return s.ListServers(), fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	if _, ok := s.stored[id]; !ok {
		s.removeLocked(id)
		s.mu.Unlock()
		return s.finish(nil)
	}
	value := s.storedValue(nil, id)
	s.mu.Unlock()

	if err := s.persist(value); err != nil {
		return s.finish(err)
	}

	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
	if s.secrets != nil {
		if err := s.secrets.DeleteAPIKey(id); err != nil {
			s.log.Warn("remove stored api key", "server", id, "error", err)
		}
	}
	return s.finish(nil)
}

// TestConnection asks the host to reach the server once and records the
// outcome on the server row.
func (s *serverService) TestConnection(id string) (ServerState, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return s.ListServers(), fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	srv := s.servers[i]
	s.servers[i].ConnectionStatus = models.ConnectionChecking
	delete(s.messages, id)
	state := s.snapshot()
	s.mu.Unlock()
	s.emit(state)

	var err error
	if s.client == nil {
		err = bridge.ErrUnavailable
	} else {
		_, err = s.client.Test(s.context, ollama.ServerFrom(srv, plugin.DefinitionServers))
	}

	status := models.ConnectionSuccess
	if err != nil {
		status = models.ConnectionError
		s.log.Warn("connection test failed", "server", id, "error", err)
	}

	s.mu.Lock()
	// The row may have been deleted while the request was in flight.
	if i := s.index(id); i >= 0 {
		s.servers[i].ConnectionStatus = status
		s.messages[id] = ollama.ConnectionMessage(err)
	}
	state = s.snapshot()
	s.mu.Unlock()

	s.emit(state)
	return state, err
}

// storedValue builds the value to persist from the last saved version of
// every saved server, with next replacing its own row and skip left out.
// Callers hold s.mu.
func (s *serverService) storedValue(next *models.ServerConfig, skip string) models.ServerSettings {
	value := models.ServerSettings{Servers: make([]models.ServerConfig, 0, len(s.servers))}
	for _, srv := range s.servers {
		switch {
		case srv.ID == skip:
		case next != nil && srv.ID == next.ID:
			value.Servers = append(value.Servers, *next)
		default:
			if stored, ok := s.stored[srv.ID]; ok {
				value.Servers = append(value.Servers, stored)
			}
		}
	}
	return value
}

func (s *serverService) persist(value models.ServerSettings) error {
	if s.secrets != nil {
		for i, srv := range value.Servers {
			if err := s.secrets.StoreAPIKey(srv.ID, srv.APIKey); err != nil {
				return fmt.Errorf("store api key for %s: %w", srv.ID, err)
			}
			value.Servers[i].APIKey = ""
		}
	}
	return s.pref.Save(s.context, value)
}

// restoreKey puts back the API key a failed save had already written.
func (s *serverService) restoreKey(id, key string, wasSaved bool) {
	if s.secrets == nil {
		return
	}
	var err error
	if wasSaved {
		err = s.secrets.StoreAPIKey(id, key)
	} else {
		err = s.secrets.DeleteAPIKey(id)
	}
	if err != nil {
		s.log.Warn("restore stored api key", "server", id, "error", err)
	}
}

// edited reports whether the row has changes that were not saved yet.
func edited(current, stored models.ServerConfig) bool {
	return current.ServerName != stored.ServerName ||
		current.ServerAddress != stored.ServerAddress ||
		current.APIKey != stored.APIKey
}

// removeLocked drops the row from memory. Callers hold s.mu.
func (s *serverService) removeLocked(id string) {
	if i := s.index(id); i >= 0 {
		s.servers = append(s.servers[:i:i], s.servers[i+1:]...)
	}
	delete(s.stored, id)
	delete(s.messages, id)
}

func (s *serverService) finish(err error) (ServerState, error) {
	s.mu.Lock()
	s.errMsg = preference.SaveMessage(err)
	state := s.snapshot()
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Error("save server settings")
	}
	s.emit(state)
	return state, err
}

// onPush replaces the saved servers with the pushed list. Rows with unsaved
// edits keep their local values.
func (s *serverService) onPush(v models.ServerSettings) {
	pushed := s.rehydrate(v.Servers)

	s.mu.Lock()
	next := make([]models.ServerConfig, 0, len(pushed)+len(s.servers))
	stored := make(map[string]models.ServerConfig, len(pushed))
	for _, srv := range pushed {
		stored[srv.ID] = srv
		if i := s.index(srv.ID); i >= 0 {
			if prev, ok := s.stored[srv.ID]; !ok || edited(s.servers[i], prev) {
				srv = s.servers[i]
			}
		}
		next = append(next, srv)
		s.issued[srv.ID] = true
	}
	for _, srv := range s.servers {
		_, wasStored := s.stored[srv.ID]
		_, pushedNow := stored[srv.ID]
		if !wasStored && !pushedNow {
			next = append(next, srv)
		}
	}
	s.servers = next
	s.stored = stored
	s.errMsg = ""
	state := s.snapshot()
	s.mu.Unlock()

	s.emit(state)
}

func (s *serverService) rehydrate(servers []models.ServerConfig) []models.ServerConfig {
	out := make([]models.ServerConfig, 0, len(servers))
	for _, srv := range servers {
		if srv.ConnectionStatus == "" {
			srv.ConnectionStatus = models.ConnectionIdle
		}
		if s.secrets != nil && srv.APIKey == "" && srv.ID != "" {
			key, err := s.secrets.GetAPIKey(srv.ID)
			if err != nil {
				s.log.Warn("read stored api key", "server", srv.ID, "error", err)
			}
			srv.APIKey = key
		}
		out = append(out, srv)
	}
	return out
}

// newID returns server_<unix millis>_<9 base36 chars>, never one that was
// already handed out by this process. Callers hold s.mu.
func (s *serverService) newID() string {
	for {
		id := "server_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + randomBase36(9)
		if !s.issued[id] {
			s.issued[id] = true
			return id
		}
	}
}

func (s *serverService) index(id string) int {
	for i, srv := range s.servers {
		if srv.ID == id {
			return i
		}
	}
	return -1
}

func (s *serverService) snapshot() ServerState {
	state := ServerState{
		Servers:  append([]models.ServerConfig(nil), s.servers...),
		Messages: make(map[string]string, len(s.messages)),
		Source:   s.source,
		Error:    s.errMsg,
	}
	if state.Servers == nil {
		state.Servers = []models.ServerConfig{}
	}
	for _, srv := range s.servers {
		if _, ok := s.stored[srv.ID]; !ok {
			state.Unsaved = append(state.Unsaved, srv.ID)
		}
	}
	for k, v := range s.messages {
		state.Messages[k] = v
	}
	return state
}

func (s *serverService) emit(state ServerState) {
	evt := events.New(events.EventInfo, s.pref.Key(), state)
	if state.Error != "" {
		evt.Type = events.EventError
		evt.Message = state.Error
	}
	events.Emit(s.context, events.ServersChanged, evt)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}
