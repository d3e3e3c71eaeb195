package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"braindrive-settings/internal/models"
	"braindrive-settings/internal/repositories"
)

// LocalSettings is a SettingsBridge backed by the application database. It
// also implements DefinitionRegistry.
//
// Stored values are kept as JSON strings and handed back unchanged, so
// readers see the pre-serialized form.
type LocalSettings struct {
	repo   repositories.SettingRepository
	userID string

	mu      sync.Mutex
	nextID  int
	keySubs map[string]map[int]func(any)
	catSubs map[string]map[int]func(string, any)
}

func NewLocalSettings(repo repositories.SettingRepository, userID string) *LocalSettings {
	if userID == "" {
		userID = models.CurrentUser
	}
	return &LocalSettings{
		repo:    repo,
		userID:  userID,
		keySubs: make(map[string]map[int]func(any)),
		catSubs: make(map[string]map[int]func(string, any)),
	}
}

func (s *LocalSettings) RegisterSettingDefinition(ctx context.Context, def models.SettingDefinition) error {
	created, err := s.repo.CreateDefinition(ctx, &def)
	if err != nil {
		return fmt.Errorf("register definition %s: %w", def.ID, err)
	}
	if !created {
		return ErrDefinitionExists
	}
	return nil
}

func (s *LocalSettings) GetSettingDefinitions(ctx context.Context, filter DefinitionFilter) ([]models.SettingDefinition, error) {
	return s.repo.ListDefinitions(ctx, filter.ID, filter.Category)
}

// GetSetting returns the stored value. ErrNotFound means nothing was stored
// yet; callers fall back to the definition default themselves.
func (s *LocalSettings) GetSetting(ctx context.Context, key string, scope *Scope) (any, error) {
	sc, user := s.resolve(scope)
	inst, err := s.repo.GetInstance(ctx, key, sc, user)
	if err != nil {
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	if inst == nil {
		return nil, ErrNotFound
	}
	return inst.Value, nil
}

func (s *LocalSettings) SetSetting(ctx context.Context, key string, value any, scope *Scope) error {
	raw, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}

	sc, user := s.resolve(scope)
	name := key
	category := ""
	if def, err := s.repo.GetDefinition(ctx, key); err == nil && def != nil {
		name = def.Name
		category = def.Category
	}

	now := time.Now()
	inst := &models.SettingInstance{
		ID:           strings.ReplaceAll(uuid.NewString(), "-", ""),
		DefinitionID: key,
		Name:         name,
		Value:        raw,
		Scope:        sc,
		UserID:       user,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.UpsertInstance(ctx, inst); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}

	s.publish(key, category, raw)
	return nil
}

func (s *LocalSettings) Subscribe(key string, fn func(value any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.keySubs[key] == nil {
		s.keySubs[key] = make(map[int]func(any))
	}
	s.keySubs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.keySubs[key], id)
	}
}

func (s *LocalSettings) SubscribeToCategory(category string, fn func(key string, value any)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.catSubs[category] == nil {
		s.catSubs[category] = make(map[int]func(string, any))
	}
	s.catSubs[category][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.catSubs[category], id)
	}
}

func (s *LocalSettings) publish(key, category, value string) {
	s.mu.Lock()
	keyFns := make([]func(any), 0, len(s.keySubs[key]))
	for _, fn := range s.keySubs[key] {
		keyFns = append(keyFns, fn)
	}
	var catFns []func(string, any)
	if category != "" {
		for _, fn := range s.catSubs[category] {
			catFns = append(catFns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range keyFns {
		fn(value)
	}
	for _, fn := range catFns {
		fn(key, value)
	}
}

func (s *LocalSettings) resolve(scope *Scope) (string, string) {
	sc, user := models.ScopeUser, s.userID
	if scope != nil {
		if scope.Scope != "" {
			sc = scope.Scope
		}
		if scope.UserID != "" {
			user = scope.UserID
		}
	}
	return sc, user
}

// encodeValue turns a setting value into the JSON string that is stored.
// Strings and byte slices are assumed to be serialized already.
func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
