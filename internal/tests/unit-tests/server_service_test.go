package unit_tests

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
	"braindrive-settings/internal/plugin"
	"braindrive-settings/internal/preference"
	"braindrive-settings/internal/services"
	"braindrive-settings/internal/tests/fakehost"
	"braindrive-settings/internal/tests/mocks"
)

var serverIDPattern = regexp.MustCompile(`^server_\d+_[0-9a-z]{9}$`)

func newServerService(settings bridge.SettingsBridge, api hostapi.API, secrets services.SecretStore) services.ServerService {
	pref := services.NewServersPreference(plugin.MustLoad(), preference.Options{
		Bridge: bridge.Negotiate(settings),
		API:    bridge.Negotiate(api),
	})
	var client *ollama.Client
	if api != nil {
		client = ollama.NewClient(api)
	}
	return services.NewServerService(pref, client, secrets, nil)
}

func storedServers(t *testing.T, v any) []models.ServerConfig {
	t.Helper()
	s, err := preference.Decode[models.ServerSettings](v)
	require.NoError(t, err)
	return s.Servers
}

func findServer(t *testing.T, servers []models.ServerConfig, id string) models.ServerConfig {
	t.Helper()
	for _, srv := range servers {
		if srv.ID == id {
			return srv
		}
	}
	require.Failf(t, "server not found", "no server %s in %v", id, servers)
	return models.ServerConfig{}
}

func seededServers() map[string]any {
	return map[string]any{
		plugin.DefinitionServers: `{"servers":[` +
			`{"id":"server_1","serverName":"One","serverAddress":"http://one:11434","apiKey":"","connectionStatus":"idle"},` +
			`{"id":"server_2","serverName":"Two","serverAddress":"http://two:11434","apiKey":"k2","connectionStatus":"success"},` +
			`{"id":"server_3","serverName":"Three","serverAddress":"http://three:11434","apiKey":""}]}`,
	}
}

func TestServerService_LoadRoundTripPreservesFields(t *testing.T) {
	settings, stored := memoryBridge(seededServers())
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	state := service.ListServers()
	require.Len(t, state.Servers, 3)
	assert.Equal(t, models.ConnectionIdle, state.Servers[2].ConnectionStatus)

	_, err := service.SaveServer("server_2")
	require.NoError(t, err)

	saved := storedServers(t, stored(plugin.DefinitionServers))
	require.Len(t, saved, 3)
	for i, want := range state.Servers {
		assert.Equal(t, want.ID, saved[i].ID)
		assert.Equal(t, want.ServerName, saved[i].ServerName)
		assert.Equal(t, want.ServerAddress, saved[i].ServerAddress)
		assert.Equal(t, want.APIKey, saved[i].APIKey)
	}
}

func TestServerService_DeleteRemovesExactlyOneAndSaves(t *testing.T) {
	settings, stored := memoryBridge(seededServers())
	saves := 0
	set := settings.SetSettingFunc
	settings.SetSettingFunc = func(ctx context.Context, key string, value any, scope *bridge.Scope) error {
		saves++
		return set(ctx, key, value, scope)
	}
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	state, err := service.DeleteServer("server_2")
	require.NoError(t, err)
	assert.Equal(t, 1, saves)

	var ids []string
	for _, s := range storedServers(t, stored(plugin.DefinitionServers)) {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"server_1", "server_3"}, ids)
	assert.Len(t, state.Servers, 2)

	_, err = service.DeleteServer("server_2")
	assert.ErrorIs(t, err, services.ErrServerNotFound)
}

func TestServerService_AddedServerIsTransientUntilSaved(t *testing.T) {
	settings, stored := memoryBridge(nil)
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	added := service.AddServer()
	assert.Regexp(t, serverIDPattern, added.ID)
	assert.Equal(t, models.ConnectionIdle, added.ConnectionStatus)
	assert.Equal(t, []string{added.ID}, service.ListServers().Unsaved)
	assert.Nil(t, stored(plugin.DefinitionServers))

	name := "Workstation"
	addr := "http://10.0.0.5:11434"
	_, err := service.UpdateServer(added.ID, models.ServerPatch{ServerName: &name, ServerAddress: &addr})
	require.NoError(t, err)

	state, err := service.SaveServer(added.ID)
	require.NoError(t, err)
	assert.Empty(t, state.Unsaved)

	saved := findServer(t, storedServers(t, stored(plugin.DefinitionServers)), added.ID)
	assert.Equal(t, "Workstation", saved.ServerName)
}

func TestServerService_DeletingTransientServerDoesNotSave(t *testing.T) {
	settings, stored := memoryBridge(seededServers())
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())
	before := stored(plugin.DefinitionServers)

	added := service.AddServer()
	state, err := service.DeleteServer(added.ID)
	require.NoError(t, err)
	assert.Len(t, state.Servers, 3)
	assert.Equal(t, before, stored(plugin.DefinitionServers))
}

func TestServerService_IDsAreNeverReused(t *testing.T) {
	settings, _ := memoryBridge(nil)
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := service.AddServer().ID
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestServerService_SaveRejectsInvalidServer(t *testing.T) {
	settings, stored := memoryBridge(nil)
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	added := service.AddServer()
	empty := ""
	_, err := service.UpdateServer(added.ID, models.ServerPatch{ServerName: &empty})
	require.NoError(t, err)

	state, err := service.SaveServer(added.ID)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Server name is required", state.Messages[added.ID])
	assert.Nil(t, stored(plugin.DefinitionServers))
}

func TestServerService_TestConnection(t *testing.T) {
	host := fakehost.New(t)
	settings, _ := memoryBridge(seededServers())
	service := newServerService(settings, host.API(), nil)
	service.Startup(context.Background())

	state, err := service.TestConnection("server_1")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionSuccess, state.Servers[0].ConnectionStatus)
	assert.Equal(t, ollama.MsgConnected, state.Messages["server_1"])
	assert.Equal(t, 1, host.Calls("GET "+ollama.TestPath))

	host.SetTestStatus(http.StatusUnprocessableEntity)
	state, err = service.TestConnection("server_2")
	assert.Error(t, err)
	assert.Equal(t, models.ConnectionError, state.Servers[1].ConnectionStatus)
	assert.Equal(t, ollama.MsgValidationError, state.Messages["server_2"])

	host.SetTestStatus(http.StatusServiceUnavailable)
	state, _ = service.TestConnection("server_3")
	assert.Equal(t, ollama.MsgUnreachable, state.Messages["server_3"])
	assert.Equal(t, 3, host.Calls("GET "+ollama.TestPath))

	_, err = service.UpdateServer("server_3", models.ServerPatch{})
	require.NoError(t, err)
	state = service.ListServers()
	assert.Equal(t, models.ConnectionIdle, state.Servers[2].ConnectionStatus)
	assert.NotContains(t, state.Messages, "server_3")
}

func TestServerService_TestConnectionWithoutAPI(t *testing.T) {
	settings, _ := memoryBridge(seededServers())
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	state, err := service.TestConnection("server_1")
	assert.ErrorIs(t, err, bridge.ErrUnavailable)
	assert.Equal(t, models.ConnectionError, state.Servers[0].ConnectionStatus)
}

func TestServerService_KeysLiveInSecretStore(t *testing.T) {
	secrets := services.NewKeyringService(keyring.NewArrayKeyring(nil))
	settings, stored := memoryBridge(seededServers())
	service := newServerService(settings, nil, secrets)
	service.Startup(context.Background())

	_, err := service.SaveServer("server_2")
	require.NoError(t, err)

	for _, s := range storedServers(t, stored(plugin.DefinitionServers)) {
		assert.Empty(t, s.APIKey)
	}
	key, err := secrets.GetAPIKey("server_2")
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	reloaded := newServerService(settings, nil, secrets)
	reloaded.Startup(context.Background())
	srv, err := reloaded.Server("server_2")
	require.NoError(t, err)
	assert.Equal(t, "k2", srv.APIKey)

	_, err = reloaded.DeleteServer("server_2")
	require.NoError(t, err)
	key, err = secrets.GetAPIKey("server_2")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestServerService_SecretStoreFailureAbortsSave(t *testing.T) {
	var mu sync.Mutex
	writes := 0
	secrets := &mocks.SecretStoreMock{
		StoreAPIKeyFunc: func(serverID, apiKey string) error {
			mu.Lock()
			defer mu.Unlock()
			writes++
			return keyring.ErrNoAvailImpl
		},
	}
	settings, stored := memoryBridge(nil)
	service := newServerService(settings, nil, secrets)
	service.Startup(context.Background())

	added := service.AddServer()
	state, err := service.SaveServer(added.ID)
	assert.ErrorIs(t, err, keyring.ErrNoAvailImpl)
	assert.Equal(t, []string{added.ID}, state.Unsaved)
	assert.Nil(t, stored(plugin.DefinitionServers))
	assert.Equal(t, 1, writes)
}

func TestServerService_PushKeepsUnsavedEdits(t *testing.T) {
	settings, _ := memoryBridge(seededServers())
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())
	added := service.AddServer()

	settings.Push(plugin.DefinitionServers, `{"servers":[{"id":"server_9","serverName":"Nine","serverAddress":"http://nine:11434"}]}`)

	state := service.ListServers()
	require.Len(t, state.Servers, 2)
	assert.Equal(t, "server_9", state.Servers[0].ID)
	assert.Equal(t, added.ID, state.Servers[1].ID)
	assert.Equal(t, []string{added.ID}, state.Unsaved)
}

func TestServerService_FailedDeleteKeepsRowAndKey(t *testing.T) {
	secrets := services.NewKeyringService(keyring.NewArrayKeyring(nil))
	require.NoError(t, secrets.StoreAPIKey("server_2", "k2"))
	settings, stored := memoryBridge(seededServers())
	service := newServerService(settings, nil, secrets)
	service.Startup(context.Background())
	before := stored(plugin.DefinitionServers)

	set := settings.SetSettingFunc
	settings.SetSettingFunc = func(ctx context.Context, key string, value any, scope *bridge.Scope) error {
		return errors.New("boom")
	}
	state, err := service.DeleteServer("server_2")
	require.Error(t, err)
	assert.Len(t, state.Servers, 3)
	assert.Empty(t, state.Unsaved)
	assert.NotEmpty(t, state.Error)
	assert.Equal(t, before, stored(plugin.DefinitionServers))
	key, err := secrets.GetAPIKey("server_2")
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	settings.SetSettingFunc = set
	state, err = service.DeleteServer("server_2")
	require.NoError(t, err)
	assert.Len(t, state.Servers, 2)
	key, err = secrets.GetAPIKey("server_2")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestServerService_SaveKeepsPendingEditsOfOtherServersLocal(t *testing.T) {
	settings, stored := memoryBridge(seededServers())
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	empty := ""
	_, err := service.UpdateServer("server_1", models.ServerPatch{ServerName: &empty, ServerAddress: &empty})
	require.NoError(t, err)
	renamed := "Two renamed"
	_, err = service.UpdateServer("server_2", models.ServerPatch{ServerName: &renamed})
	require.NoError(t, err)

	_, err = service.SaveServer("server_2")
	require.NoError(t, err)

	saved := storedServers(t, stored(plugin.DefinitionServers))
	require.Len(t, saved, 3)
	assert.Equal(t, "One", saved[0].ServerName)
	assert.Equal(t, "http://one:11434", saved[0].ServerAddress)
	assert.Equal(t, "Two renamed", saved[1].ServerName)

	current, err := service.Server("server_1")
	require.NoError(t, err)
	assert.Empty(t, current.ServerName)

	_, err = service.SaveServer("server_1")
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "One", storedServers(t, stored(plugin.DefinitionServers))[0].ServerName)
}

func TestServerService_SaveStoresTrimmedValues(t *testing.T) {
	settings, stored := memoryBridge(nil)
	service := newServerService(settings, nil, nil)
	service.Startup(context.Background())

	added := service.AddServer()
	name := "  Box  "
	addr := " http://box:11434 "
	_, err := service.UpdateServer(added.ID, models.ServerPatch{ServerName: &name, ServerAddress: &addr})
	require.NoError(t, err)

	_, err = service.SaveServer(added.ID)
	require.NoError(t, err)

	saved := findServer(t, storedServers(t, stored(plugin.DefinitionServers)), added.ID)
	assert.Equal(t, "Box", saved.ServerName)
	assert.Equal(t, "http://box:11434", saved.ServerAddress)

	current, err := service.Server(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Box", current.ServerName)
}
