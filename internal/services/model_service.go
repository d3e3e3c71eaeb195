package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/events"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/plugin"
)

// ModelOptions tunes how long an install waits for the model to show up in
// the server's listing once the host reports it finished.
type ModelOptions struct {
	VisibilityTimeout time.Duration
	VisibilityPoll    time.Duration
}

type ModelService interface {
	Startup(ctx context.Context)
	ListModels(serverID string, page, pageSize int) (Page[models.ModelInfo], error)
	InstallModel(serverID, name string) (models.ModelOperation, error)
	DeleteModel(serverID, name string) (models.ModelOperation, error)
	Operations() []models.ModelOperation
	ClearFinished() int
}

// WaitForInstalls blocks until every install m is following has finished.
// It is not a method so the desktop frontend cannot call it.
func WaitForInstalls(m ModelService) {
	if w, ok := m.(interface{ wait() }); ok {
		w.wait()
	}
}

type modelService struct {
	context context.Context
	servers ServerLookup
	client  *ollama.Client
	tracker *ollama.Tracker
	opts    ModelOptions
	log     *logger.Logger

	mu  sync.Mutex
	ops map[string]*models.ModelOperation
	wg  sync.WaitGroup
}

// NewModelService builds the model manager. client and tracker may be nil
// when the host API is unavailable; every call then fails with
// bridge.ErrUnavailable.
func NewModelService(servers ServerLookup, client *ollama.Client, tracker *ollama.Tracker, opts ModelOptions, log *logger.Logger) ModelService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = 30 * time.Second
	}
	if opts.VisibilityPoll <= 0 {
		opts.VisibilityPoll = 2 * time.Second
	}
	return &modelService{
		context: context.Background(),
		servers: servers,
		client:  client,
		tracker: tracker,
		opts:    opts,
		log:     log.WithFields("panel", "models"),
		ops:     make(map[string]*models.ModelOperation),
	}
}

func (s *modelService) Startup(ctx context.Context) {
	s.context = ctx
}

func (s *modelService) ListModels(serverID string, page, pageSize int) (Page[models.ModelInfo], error) {
	srv, err := s.server(serverID)
	if err != nil {
		return Paginate[models.ModelInfo](nil, page, pageSize), err
	}
	list, err := s.client.ListModels(s.context, srv)
	if err != nil {
		s.log.Warn("list models", "server", serverID, "error", err)
		return Paginate[models.ModelInfo](nil, page, pageSize), err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return Paginate(list, page, pageSize), nil
}

// InstallModel enqueues the install and follows it in the background. The
// returned operation is the initial pending row.
func (s *modelService) InstallModel(serverID, name string) (models.ModelOperation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ModelOperation{}, errors.New("model name is required")
	}
	srv, err := s.server(serverID)
	if err != nil {
		return models.ModelOperation{}, err
	}
	if s.tracker == nil {
		return models.ModelOperation{}, bridge.ErrUnavailable
	}

	op := s.start(models.OperationInstall, serverID, name)

	taskID, err := s.client.Install(s.context, srv, name)
	if err != nil {
		msg := ollama.ConnectionMessage(err)
		final := s.update(op.ID, func(o *models.ModelOperation) {
			o.State = models.InstallError
			o.Error = msg
		})
		return final, err
	}
	op = s.update(op.ID, func(o *models.ModelOperation) { o.TaskID = taskID })

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.follow(op.ID, srv, name, taskID)
	}()
	return op, nil
}

func (s *modelService) follow(opID string, srv ollama.Server, name, taskID string) {
	ctx := s.context
	final, err := s.tracker.Watch(ctx, taskID, func(st models.ModelInstallation) {
		s.update(opID, func(o *models.ModelOperation) {
			// Completion is only reported once the model is listed.
			if st.State == models.InstallCompleted {
				o.State = models.InstallVerifying
			} else {
				o.State = st.State
			}
			o.Progress = st.Progress
			o.Message = st.Message
			o.Error = st.Error
		})
	})

	switch {
	case errors.Is(err, ollama.ErrTaskLost):
		s.fail(opID, ollama.MsgTaskLost)
		return
	case errors.Is(err, context.Canceled):
		s.update(opID, func(o *models.ModelOperation) { o.State = models.InstallCanceled })
		return
	case err != nil:
		s.fail(opID, ollama.ConnectionMessage(err))
		return
	case final.State != models.InstallCompleted:
		msg := final.Error
		if msg == "" {
			msg = final.Message
		}
		s.update(opID, func(o *models.ModelOperation) {
			o.State = final.State
			o.Error = msg
		})
		return
	}

	list := func(ctx context.Context) ([]models.ModelInfo, error) {
		return s.client.ListModels(ctx, srv)
	}
	switch ollama.ConfirmVisible(ctx, list, name, s.opts.VisibilityTimeout, s.opts.VisibilityPoll) {
	case ollama.Visible:
		s.update(opID, func(o *models.ModelOperation) {
			o.State = models.InstallCompleted
			o.Progress = 100
			o.Error = ""
		})
	case ollama.NotVisible:
		s.update(opID, func(o *models.ModelOperation) {
			o.State = models.InstallUnconfirmed
			o.Message = ollama.MsgNotVisible
		})
	default:
		s.fail(opID, ollama.MsgVerifyUnavailable)
	}
}

// DeleteModel removes the model from the server. The operation row records
// the outcome.
func (s *modelService) DeleteModel(serverID, name string) (models.ModelOperation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ModelOperation{}, errors.New("model name is required")
	}
	srv, err := s.server(serverID)
	if err != nil {
		return models.ModelOperation{}, err
	}

	op := s.start(models.OperationDelete, serverID, name)
	if err := s.client.Delete(s.context, srv, name); err != nil {
		s.log.Warn("delete model", "server", serverID, "model", name, "error", err)
		return s.fail(op.ID, ollama.ConnectionMessage(err)), err
	}
	return s.update(op.ID, func(o *models.ModelOperation) {
		o.State = models.InstallCompleted
		o.Progress = 100
	}), nil
}

// Operations returns the tracked operations, oldest first.
func (s *modelService) Operations() []models.ModelOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ModelOperation, 0, len(s.ops))
	for _, op := range s.ops {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// ClearFinished forgets operations that will not change anymore and tells
// every mounted panel which rows to drop.
func (s *modelService) ClearFinished() int {
	s.mu.Lock()
	var cleared []string
	for id, op := range s.ops {
		if op.State.Terminal() || op.State == models.InstallUnconfirmed {
			delete(s.ops, id)
			cleared = append(cleared, id)
		}
	}
	s.mu.Unlock()

	if len(cleared) > 0 {
		sort.Strings(cleared)
		events.Emit(s.context, events.OperationsCleared, events.New(events.EventInfo, "operations", cleared))
	}
	return len(cleared)
}

func (s *modelService) wait() {
	s.wg.Wait()
}

func (s *modelService) server(id string) (ollama.Server, error) {
	if s.client == nil {
		return ollama.Server{}, bridge.ErrUnavailable
	}
	cfg, err := s.servers.Server(id)
	if err != nil {
		return ollama.Server{}, err
	}
	if strings.TrimSpace(cfg.ServerAddress) == "" {
		return ollama.Server{}, fmt.Errorf("%w: server %s has no address", ErrValidation, id)
	}
	return ollama.ServerFrom(cfg, plugin.DefinitionServers), nil
}

func (s *modelService) start(kind models.OperationKind, serverID, name string) models.ModelOperation {
	now := time.Now()
	op := &models.ModelOperation{
		ID:        uuid.NewString(),
		Kind:      kind,
		ServerID:  serverID,
		ModelName: name,
		State:     models.InstallPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.ops[op.ID] = op
	snapshot := *op
	s.mu.Unlock()

	s.emit(snapshot)
	return snapshot
}

func (s *modelService) update(id string, fn func(*models.ModelOperation)) models.ModelOperation {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return models.ModelOperation{ID: id}
	}
	fn(op)
	op.UpdatedAt = time.Now()
	snapshot := *op
	s.mu.Unlock()

	s.emit(snapshot)
	return snapshot
}

func (s *modelService) fail(id, msg string) models.ModelOperation {
	return s.update(id, func(o *models.ModelOperation) {
		o.State = models.InstallError
		o.Error = msg
	})
}

func (s *modelService) emit(op models.ModelOperation) {
	evt := events.New(events.EventInfo, op.ModelName, op)
	switch op.State {
	case models.InstallError:
		evt.Type = events.EventError
		evt.Message = op.Error
	case models.InstallUnconfirmed:
		evt.Type = events.EventWarn
		evt.Message = op.Message
	case models.InstallCompleted:
		evt.Type = events.EventSuccess
	}
	events.Emit(s.context, events.OperationUpdated, evt)
}
