// Package fakehost serves the parts of the host HTTP API the settings panels
// use, backed by in-memory state. Tests point a hostapi.Client at it.
package fakehost

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/models"
)

// Task is a scripted install. Each status request or stream event advances
// to the next step; the last step is repeated once reached.
type Task struct {
	Name      string
	ServerURL string
	Steps     []models.ModelInstallation
	pos       int
}

type Host struct {
	*httptest.Server

	mu        sync.Mutex
	instances []hostapi.Instance
	pages     []models.Page
	models    map[string][]models.ModelInfo
	tasks     map[string]*Task
	calls     map[string]int
	nextID    int

	testStatus    int
	stream        bool
	hideInstalled bool
	loseTasks     bool
	steps         []models.ModelInstallation
}

func New(t testing.TB) *Host {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Host{
		models: make(map[string][]models.ModelInfo),
		tasks:  make(map[string]*Task),
		calls:  make(map[string]int),
	}
	r := gin.New()
	r.Use(h.count)

	v1 := r.Group("/api/v1")
	v1.GET("/settings/instances", h.listInstances)
	v1.POST("/settings/instances", h.saveInstance)
	v1.GET("/pages", h.listPages)
	v1.GET("/ollama/test", h.testConnection)
	v1.GET("/ollama/models", h.listModels)
	v1.POST("/ollama/install", h.install)
	v1.GET("/ollama/install/:id", h.installStatus)
	v1.GET("/ollama/install/:id/events", h.installEvents)
	v1.DELETE("/ollama/delete", h.deleteModel)

	h.Server = httptest.NewServer(r)
	t.Cleanup(h.Server.Close)
	return h
}

// API returns a client for the fake host.
func (h *Host) API() *hostapi.Client {
	return hostapi.New(h.URL)
}

// SetTestStatus sets the status the connection test answers with; 0 means 200.
func (h *Host) SetTestStatus(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.testStatus = code
}

// SetStream enables the install events endpoint. When disabled it answers
// with plain JSON, which clients must treat as "no stream".
func (h *Host) SetStream(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stream = enabled
}

// SetHideInstalled keeps finished installs out of the model listing.
func (h *Host) SetHideInstalled(hide bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hideInstalled = hide
}

// SetLoseTasks makes the status endpoint forget every task.
func (h *Host) SetLoseTasks(lose bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loseTasks = lose
}

// SetSteps overrides the scripted progress of new installs.
func (h *Host) SetSteps(steps ...models.ModelInstallation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = steps
}

// Calls returns how many requests hit "METHOD /route/pattern".
func (h *Host) Calls(route string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[route]
}

func (h *Host) SetPages(pages ...models.Page) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages = pages
}

func (h *Host) SetModels(serverURL string, list ...models.ModelInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.models[serverURL] = list
}

// PutInstance stores an instance as if another client had saved it.
func (h *Host) PutInstance(inst hostapi.Instance) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.upsert(inst)
}

// Instances returns a copy of the stored instances.
func (h *Host) Instances() []hostapi.Instance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hostapi.Instance(nil), h.instances...)
}

func (h *Host) count(c *gin.Context) {
	h.mu.Lock()
	h.calls[c.Request.Method+" "+c.FullPath()]++
	h.mu.Unlock()
	c.Next()
}

func (h *Host) listInstances(c *gin.Context) {
	defID := c.Query("definition_id")
	scope := c.Query("scope")
	user := c.Query("user_id")

	h.mu.Lock()
	out := []hostapi.Instance{}
	for _, inst := range h.instances {
		if (defID == "" || inst.DefinitionID == defID) &&
			(scope == "" || inst.Scope == scope) &&
			(user == "" || inst.UserID == user) {
			out = append(out, inst)
		}
	}
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Host) saveInstance(c *gin.Context) {
	var inst hostapi.Instance
	if err := c.ShouldBindJSON(&inst); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	h.mu.Lock()
	inst = h.upsert(inst)
	h.mu.Unlock()
	c.JSON(http.StatusOK, inst)
}

func (h *Host) upsert(inst hostapi.Instance) hostapi.Instance {
	if inst.ID == "" {
		h.nextID++
		inst.ID = "inst_" + strconv.Itoa(h.nextID)
	}
	for i := range h.instances {
		if h.instances[i].ID == inst.ID {
			h.instances[i] = inst
			return inst
		}
	}
	h.instances = append(h.instances, inst)
	return inst
}

func (h *Host) listPages(c *gin.Context) {
	h.mu.Lock()
	pages := append([]models.Page{}, h.pages...)
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"pages": pages, "total": len(pages)})
}

func (h *Host) testConnection(c *gin.Context) {
	if c.Query("server_url") == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "server_url is required"})
		return
	}
	h.mu.Lock()
	code := h.testStatus
	h.mu.Unlock()
	if code != 0 && code != http.StatusOK {
		c.JSON(code, gin.H{"detail": http.StatusText(code)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "version": "0.5.7"})
}

func (h *Host) listModels(c *gin.Context) {
	h.mu.Lock()
	list := append([]models.ModelInfo{}, h.models[c.Query("server_url")]...)
	h.mu.Unlock()
	c.JSON(http.StatusOK, list)
}

type installBody struct {
	Name      string `json:"name" binding:"required"`
	ServerURL string `json:"server_url" binding:"required"`
}

func (h *Host) install(c *gin.Context) {
	var body installBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	h.mu.Lock()
	h.nextID++
	id := "task_" + strconv.Itoa(h.nextID)
	steps := h.steps
	if len(steps) == 0 {
		steps = []models.ModelInstallation{
			{State: models.InstallRunning, Completed: 50, Total: 100, Message: "pulling manifest"},
			{State: models.InstallCompleted, Completed: 100, Total: 100, Message: "success"},
		}
	}
	h.tasks[id] = &Task{Name: body.Name, ServerURL: body.ServerURL, Steps: steps}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"task_id": id, "status": "pending"})
}

func (h *Host) installStatus(c *gin.Context) {
	h.mu.Lock()
	task, ok := h.tasks[c.Param("id")]
	if !ok || h.loseTasks {
		h.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"detail": "task not found"})
		return
	}
	step := h.advance(c.Param("id"), task)
	h.mu.Unlock()
	c.JSON(http.StatusOK, step)
}

func (h *Host) installEvents(c *gin.Context) {
	h.mu.Lock()
	enabled := h.stream
	task, ok := h.tasks[c.Param("id")]
	h.mu.Unlock()
	if !enabled {
		c.JSON(http.StatusOK, gin.H{"detail": "streaming disabled"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "task not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	for {
		h.mu.Lock()
		step := h.advance(c.Param("id"), task)
		h.mu.Unlock()

		name := "progress"
		if step.State.Terminal() {
			name = string(step.State)
		}
		c.SSEvent(name, step)
		c.Writer.Flush()
		if step.State.Terminal() {
			return
		}
	}
}

// advance returns the current step and moves the task forward. A completed
// task adds its model to the listing. Callers hold h.mu.
func (h *Host) advance(id string, task *Task) models.ModelInstallation {
	step := task.Steps[task.pos]
	if task.pos < len(task.Steps)-1 {
		task.pos++
	}
	step.TaskID = id
	step.Name = task.Name
	if step.State == models.InstallCompleted && !h.hideInstalled && !h.listed(task.ServerURL, task.Name) {
		h.models[task.ServerURL] = append(h.models[task.ServerURL], models.ModelInfo{Name: models.ModelID(task.Name), Size: 1 << 30})
	}
	return step
}

func (h *Host) listed(serverURL, name string) bool {
	for _, m := range h.models[serverURL] {
		if m.ID() == models.ModelID(name) {
			return true
		}
	}
	return false
}

func (h *Host) deleteModel(c *gin.Context) {
	var body installBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.models[body.ServerURL]
	for i, m := range list {
		if m.ID() == models.ModelID(body.Name) {
			h.models[body.ServerURL] = append(list[:i:i], list[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"status": "deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("model %s not found", body.Name)})
}
