package preference

import (
	"context"
	"errors"
	"strings"
	"sync"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/repositories"
)

// Setting describes one remote preference.
type Setting[T any] struct {
	// Key is the logical name; it doubles as the definition id.
	Key        string
	Definition models.SettingDefinition
	// Default is used when nothing is stored. A definition default value that
	// decodes into a valid T takes precedence.
	Default    T
	Scope      *bridge.Scope
	// Valid rejects values that decode but do not have the expected shape.
	// Nil accepts everything.
	Valid      func(T) bool
}

// Options selects which stores a Remote may use. Unavailable capabilities
// and a nil Local are skipped.
type Options struct {
	Bridge bridge.Capability[bridge.SettingsBridge]
	API    bridge.Capability[hostapi.API]
	Local  repositories.LocalPreferenceRepository
	UserID string
	Logger *logger.Logger
}

// Result is the outcome of Load. Err is a user-facing message and is empty
// when the value came from a store or nothing was stored yet.
type Result[T any] struct {
	Value  T
	Source Source
	Err    string
}

// Remote reads and writes a single preference through the bridge, the host
// REST API and the local store, in that order.
type Remote[T any] struct {
	setting  Setting[T]
	backends []Backend
	settings bridge.Capability[bridge.SettingsBridge]
	log      *logger.Logger

	mu         sync.Mutex
	registered bool
}

func New[T any](setting Setting[T], opts Options) *Remote[T] {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if setting.Definition.ID == "" {
		setting.Definition.ID = setting.Key
	}

	r := &Remote[T]{
		setting:  setting,
		settings: opts.Bridge,
		log:      log.WithFields("setting", setting.Key),
	}

	if raw := setting.Definition.DefaultValue; raw != "" {
		if v, err := r.decode(raw); err == nil {
			r.setting.Default = v
		} else {
			r.log.Warn("definition default has unexpected shape", "error", err)
		}
	}

	if s, ok := opts.Bridge.Get(); ok {
		r.backends = append(r.backends, &bridgeBackend{settings: s, scope: setting.Scope})
	}
	if api, ok := opts.API.Get(); ok {
		scope, user := models.ScopeUser, opts.UserID
		if setting.Scope != nil && setting.Scope.Scope != "" {
			scope = setting.Scope.Scope
		}
		if user == "" {
			user = models.CurrentUser
		}
		r.backends = append(r.backends, &instanceBackend{
			api:    api,
			name:   instanceName(setting.Definition, setting.Key),
			scope:  scope,
			userID: user,
		})
	}
	if opts.Local != nil {
		r.backends = append(r.backends, &localBackend{repo: opts.Local})
	}
	return r
}

func (r *Remote[T]) Key() string { return r.setting.Key }

// Default returns the hard-coded fallback value.
func (r *Remote[T]) Default() T { return r.setting.Default }

// Load returns the first value any store can produce. When every store
// fails the default is returned along with a message for the panel.
func (r *Remote[T]) Load(ctx context.Context) Result[T] {
	r.ensureDefinition(ctx)

	if len(r.backends) == 0 {
		return Result[T]{Value: r.setting.Default, Source: SourceDefault, Err: MsgServiceUnavailable}
	}

	var errs []error
	for _, b := range r.backends {
		raw, err := b.Load(ctx, r.setting.Key)
		if err != nil {
			if !errors.Is(err, bridge.ErrNotFound) {
				r.log.Warn("load failed, trying next store", "source", b.Source(), "error", err)
				errs = append(errs, err)
			}
			continue
		}
		v, err := r.decode(raw)
		if err != nil {
			r.log.Warn("stored value has unexpected shape", "source", b.Source(), "error", err)
			errs = append(errs, err)
			continue
		}
		return Result[T]{Value: v, Source: b.Source()}
	}

	res := Result[T]{Value: r.setting.Default, Source: SourceDefault}
	if len(errs) > 0 {
		res.Err = LoadMessage(errors.Join(errs...))
	}
	return res
}

// Save writes v to the first store that accepts it.
func (r *Remote[T]) Save(ctx context.Context, v T) error {
	if len(r.backends) == 0 {
		return bridge.ErrUnavailable
	}

	var errs []error
	for _, b := range r.backends {
		if err := b.Save(ctx, r.setting.Key, v); err != nil {
			r.log.Warn("save failed, trying next store", "source", b.Source(), "error", err)
			errs = append(errs, err)
			continue
		}
		r.log.Debug("saved", "source", b.Source())
		return nil
	}
	return errors.Join(errs...)
}

// Subscribe forwards push updates for the key. Payloads that do not decode
// into T are dropped. Without a bridge it returns a no-op.
func (r *Remote[T]) Subscribe(fn func(T)) func() {
	s, ok := r.settings.Get()
	if !ok {
		return func() {}
	}
	return s.Subscribe(r.setting.Key, func(value any) {
		v, err := r.decode(value)
		if err != nil {
			r.log.Debug("ignoring push update", "error", err)
			return
		}
		fn(v)
	})
}

func (r *Remote[T]) decode(raw any) (T, error) {
	v, err := Decode[T](raw)
	if err != nil {
		return v, err
	}
	if r.setting.Valid != nil && !r.setting.Valid(v) {
		var zero T
		return zero, errInvalidShape
	}
	return v, nil
}

// ensureDefinition registers the definition once. A failed attempt is
// retried on the next Load.
func (r *Remote[T]) ensureDefinition(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered {
		return
	}

	s, ok := r.settings.Get()
	if !ok {
		return
	}
	reg, ok := s.(bridge.DefinitionRegistry)
	if !ok {
		r.registered = true
		return
	}

	err := reg.RegisterSettingDefinition(ctx, r.setting.Definition)
	if err == nil || errors.Is(err, bridge.ErrDefinitionExists) || strings.Contains(strings.ToLower(err.Error()), "already exists") {
		r.registered = true
		return
	}
	r.log.Warn("register definition failed", "error", err)
}
