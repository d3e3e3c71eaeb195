package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/models"
)

const (
	TestPath    = "/api/v1/ollama/test"
	ModelsPath  = "/api/v1/ollama/models"
	InstallPath = "/api/v1/ollama/install"
	DeletePath  = "/api/v1/ollama/delete"
)

// Server identifies the inference server a request is proxied to.
type Server struct {
	ID         string
	SettingsID string
	Address    string
	APIKey     string
}

func ServerFrom(cfg models.ServerConfig, settingsID string) Server {
	return Server{
		ID:         cfg.ID,
		SettingsID: settingsID,
		Address:    strings.TrimSpace(cfg.ServerAddress),
		APIKey:     cfg.APIKey,
	}
}

// TestResult is the host's answer to a connection test.
type TestResult struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the host's model-server proxy endpoints.
type Client struct {
	api hostapi.API
}

func NewClient(api hostapi.API) *Client {
	return &Client{api: api}
}

// Test checks that the host can reach srv. It issues exactly one request.
func (c *Client) Test(ctx context.Context, srv Server) (TestResult, error) {
	q := url.Values{}
	q.Set("server_url", srv.Address)
	if srv.APIKey != "" {
		q.Set("api_key", srv.APIKey)
	}
	var res TestResult
	if err := c.api.Get(ctx, TestPath, q, &res); err != nil {
		return TestResult{}, err
	}
	return res, nil
}

func (c *Client) ListModels(ctx context.Context, srv Server) ([]models.ModelInfo, error) {
	q := url.Values{}
	q.Set("server_url", srv.Address)
	if srv.SettingsID != "" {
		q.Set("settings_id", srv.SettingsID)
	}
	if srv.ID != "" {
		q.Set("server_id", srv.ID)
	}
	if srv.APIKey != "" {
		q.Set("api_key", srv.APIKey)
	}
	var raw json.RawMessage
	if err := c.api.Get(ctx, ModelsPath, q, &raw); err != nil {
		return nil, err
	}
	list, err := hostapi.DecodeList[models.ModelInfo](raw, "models", "data")
	if err != nil {
		return nil, fmt.Errorf("model listing: %w", err)
	}
	return list, nil
}

type installRequest struct {
	Name      string `json:"name"`
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key,omitempty"`
	Stream    bool   `json:"stream"`
}

type installResponse struct {
	TaskID string `json:"task_id"`
	ID     string `json:"id"`
}

// Install enqueues a model install on the host and returns the task id.
func (c *Client) Install(ctx context.Context, srv Server, name string) (string, error) {
	var res installResponse
	err := c.api.Post(ctx, InstallPath, installRequest{
		Name:      name,
		ServerURL: srv.Address,
		APIKey:    srv.APIKey,
		Stream:    true,
	}, &res)
	if err != nil {
		return "", err
	}
	id := res.TaskID
	if id == "" {
		id = res.ID
	}
	if id == "" {
		return "", fmt.Errorf("install %s: host returned no task id", name)
	}
	return id, nil
}

func (c *Client) InstallStatus(ctx context.Context, taskID string) (models.ModelInstallation, error) {
	var st models.ModelInstallation
	if err := c.api.Get(ctx, InstallPath+"/"+url.PathEscape(taskID), nil, &st); err != nil {
		return models.ModelInstallation{}, err
	}
	if st.TaskID == "" {
		st.TaskID = taskID
	}
	return st, nil
}

// InstallEvents attaches to the task's event stream.
func (c *Client) InstallEvents(ctx context.Context, taskID string) (io.ReadCloser, error) {
	return c.api.Stream(ctx, InstallPath+"/"+url.PathEscape(taskID)+"/events", nil)
}

type deleteRequest struct {
	Name      string `json:"name"`
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key,omitempty"`
}

func (c *Client) Delete(ctx context.Context, srv Server, name string) error {
	return c.api.Delete(ctx, DeletePath, deleteRequest{
		Name:      name,
		ServerURL: srv.Address,
		APIKey:    srv.APIKey,
	}, nil)
}
