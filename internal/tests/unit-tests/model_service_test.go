package unit_tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"braindrive-settings/internal/events"
	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/services"
	"braindrive-settings/internal/tests/fakehost"
	"braindrive-settings/internal/tests/mocks"
)

const modelServerURL = "http://gpu-box:11434"

func newModelService(host *fakehost.Host) services.ModelService {
	lookup := &mocks.ServerLookupMock{
		ServerFunc: func(id string) (models.ServerConfig, error) {
			if id != "server_1" {
				return models.ServerConfig{}, services.ErrServerNotFound
			}
			return models.ServerConfig{ID: id, ServerName: "GPU", ServerAddress: modelServerURL}, nil
		},
	}
	client := ollama.NewClient(host.API())
	tracker := ollama.NewTracker(
		ollama.NewStreamSource(client),
		ollama.NewPollSource(client, 5*time.Millisecond, logger.Nop()),
		logger.Nop(),
	)
	service := services.NewModelService(lookup, client, tracker, services.ModelOptions{
		VisibilityTimeout: 100 * time.Millisecond,
		VisibilityPoll:    5 * time.Millisecond,
	}, nil)
	service.Startup(context.Background())
	return service
}

func onlyOperation(t *testing.T, service services.ModelService) models.ModelOperation {
	t.Helper()
	ops := service.Operations()
	require.Len(t, ops, 1)
	return ops[0]
}

func TestModelService_ListModelsPaginates(t *testing.T) {
	host := fakehost.New(t)
	host.SetModels(modelServerURL,
		models.ModelInfo{Name: "qwen:7b"},
		models.ModelInfo{Name: "llama3:latest"},
		models.ModelInfo{Name: "mistral:latest"},
	)
	service := newModelService(host)

	page, err := service.ListModels("server_1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "llama3:latest", page.Items[0].Name)

	_, err = service.ListModels("server_x", 1, 2)
	assert.ErrorIs(t, err, services.ErrServerNotFound)
}

func TestModelService_InstallCompletesOnceVisible(t *testing.T) {
	got := captureEvents(t)
	host := fakehost.New(t)
	host.SetStream(true)
	service := newModelService(host)

	op, err := service.InstallModel("server_1", "mistral")
	require.NoError(t, err)
	assert.NotEmpty(t, op.TaskID)
	services.WaitForInstalls(service)

	final := onlyOperation(t, service)
	assert.Equal(t, models.InstallCompleted, final.State)
	assert.Equal(t, float64(100), final.Progress)

	var states []models.InstallState
	for _, e := range got() {
		assert.Equal(t, events.OperationUpdated, e.Name)
		states = append(states, e.Event.Payload.(models.ModelOperation).State)
	}
	assert.Contains(t, states, models.InstallRunning)
	assert.Contains(t, states, models.InstallVerifying)
	assert.Equal(t, models.InstallCompleted, states[len(states)-1])
}

func TestModelService_InstallPollsWhenStreamUnavailable(t *testing.T) {
	host := fakehost.New(t)
	service := newModelService(host)

	_, err := service.InstallModel("server_1", "mistral")
	require.NoError(t, err)
	services.WaitForInstalls(service)

	assert.Equal(t, models.InstallCompleted, onlyOperation(t, service).State)
	assert.Positive(t, host.Calls("GET "+ollama.InstallPath+"/:id"))
}

func TestModelService_CompletedButNeverListedIsNotCompleted(t *testing.T) {
	host := fakehost.New(t)
	host.SetHideInstalled(true)
	service := newModelService(host)

	_, err := service.InstallModel("server_1", "mistral")
	require.NoError(t, err)
	services.WaitForInstalls(service)

	final := onlyOperation(t, service)
	assert.NotEqual(t, models.InstallCompleted, final.State)
	assert.Equal(t, models.InstallUnconfirmed, final.State)
	assert.Equal(t, ollama.MsgNotVisible, final.Message)
}

func TestModelService_LostTaskIsReported(t *testing.T) {
	host := fakehost.New(t)
	host.SetLoseTasks(true)
	service := newModelService(host)

	_, err := service.InstallModel("server_1", "mistral")
	require.NoError(t, err)
	services.WaitForInstalls(service)

	final := onlyOperation(t, service)
	assert.Equal(t, models.InstallError, final.State)
	assert.Equal(t, ollama.MsgTaskLost, final.Error)
}

func TestModelService_ServerSideFailure(t *testing.T) {
	host := fakehost.New(t)
	host.SetSteps(models.ModelInstallation{State: models.InstallError, Error: "manifest unknown"})
	service := newModelService(host)

	_, err := service.InstallModel("server_1", "nope")
	require.NoError(t, err)
	services.WaitForInstalls(service)

	final := onlyOperation(t, service)
	assert.Equal(t, models.InstallError, final.State)
	assert.Equal(t, "manifest unknown", final.Error)
}

func TestModelService_DeleteModel(t *testing.T) {
	host := fakehost.New(t)
	host.SetModels(modelServerURL, models.ModelInfo{Name: "llama3:latest"})
	service := newModelService(host)

	op, err := service.DeleteModel("server_1", "llama3")
	require.NoError(t, err)
	assert.Equal(t, models.OperationDelete, op.Kind)
	assert.Equal(t, models.InstallCompleted, op.State)

	op, err = service.DeleteModel("server_1", "llama3")
	assert.Error(t, err)
	assert.Equal(t, models.InstallError, op.State)
	assert.Equal(t, ollama.MsgConnectionFailed, op.Error)

	assert.Len(t, service.Operations(), 2)
	got := captureEvents(t)
	assert.Equal(t, 2, service.ClearFinished())
	assert.Empty(t, service.Operations())

	evts := got()
	require.Len(t, evts, 1)
	assert.Equal(t, events.OperationsCleared, evts[0].Name)
	assert.Len(t, evts[0].Event.Payload, 2)

	assert.Equal(t, 0, service.ClearFinished())
	assert.Len(t, got(), 1)
}

func TestModelService_RejectsBlankName(t *testing.T) {
	service := newModelService(fakehost.New(t))
	_, err := service.InstallModel("server_1", " ")
	assert.Error(t, err)
	_, err = service.DeleteModel("server_1", "")
	assert.Error(t, err)
	assert.Empty(t, service.Operations())
}
