package ollama_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"braindrive-settings/internal/logger"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/tests/fakehost"
)

func newTracker(host *fakehost.Host) (*ollama.Client, *ollama.Tracker) {
	c := ollama.NewClient(host.API())
	return c, ollama.NewTracker(
		ollama.NewStreamSource(c),
		ollama.NewPollSource(c, 10*time.Millisecond, logger.Nop()),
		logger.Nop(),
	)
}

func TestTracker_FollowsEventStream(t *testing.T) {
	host := fakehost.New(t)
	host.SetStream(true)
	c, tracker := newTracker(host)
	ctx := context.Background()

	taskID, err := c.Install(ctx, testServer(), "mistral")
	require.NoError(t, err)

	var updates []models.ModelInstallation
	final, err := tracker.Watch(ctx, taskID, func(st models.ModelInstallation) { updates = append(updates, st) })
	require.NoError(t, err)
	assert.Equal(t, models.InstallCompleted, final.State)
	assert.Equal(t, float64(100), final.Progress)
	require.NotEmpty(t, updates)
	assert.Equal(t, float64(50), updates[0].Progress)
	assert.Equal(t, 0, host.Calls("GET "+ollama.InstallPath+"/:id"))
}

func TestTracker_FallsBackToPolling(t *testing.T) {
	host := fakehost.New(t)
	c, tracker := newTracker(host)
	ctx := context.Background()

	taskID, err := c.Install(ctx, testServer(), "mistral")
	require.NoError(t, err)

	final, err := tracker.Watch(ctx, taskID, func(models.ModelInstallation) {})
	require.NoError(t, err)
	assert.Equal(t, models.InstallCompleted, final.State)
	assert.Equal(t, 2, host.Calls("GET "+ollama.InstallPath+"/:id"))
}

func TestPollSource_LostTask(t *testing.T) {
	host := fakehost.New(t)
	host.SetLoseTasks(true)
	c := ollama.NewClient(host.API())
	poll := ollama.NewPollSource(c, 10*time.Millisecond, nil)

	taskID, err := c.Install(context.Background(), testServer(), "mistral")
	require.NoError(t, err)

	_, err = poll.Watch(context.Background(), taskID, func(models.ModelInstallation) {})
	assert.ErrorIs(t, err, ollama.ErrTaskLost)
}

func TestPollSource_ReportsServerSideError(t *testing.T) {
	host := fakehost.New(t)
	host.SetSteps(
		models.ModelInstallation{State: models.InstallRunning, Progress: 10},
		models.ModelInstallation{State: models.InstallError, Error: "disk full"},
	)
	c := ollama.NewClient(host.API())
	poll := ollama.NewPollSource(c, 10*time.Millisecond, nil)

	taskID, err := c.Install(context.Background(), testServer(), "mistral")
	require.NoError(t, err)

	final, err := poll.Watch(context.Background(), taskID, func(models.ModelInstallation) {})
	require.NoError(t, err)
	assert.Equal(t, models.InstallError, final.State)
	assert.Equal(t, "disk full", final.Error)
}

func TestPollSource_StopsOnCancel(t *testing.T) {
	host := fakehost.New(t)
	host.SetSteps(models.ModelInstallation{State: models.InstallRunning, Progress: 1})
	c := ollama.NewClient(host.API())
	poll := ollama.NewPollSource(c, 10*time.Millisecond, nil)

	taskID, err := c.Install(context.Background(), testServer(), "mistral")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = poll.Watch(ctx, taskID, func(models.ModelInstallation) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
