package models

import (
	"strings"
	"time"
)

// ModelDetails mirrors the details block reported by the inference server.
type ModelDetails struct {
	Format            string   `json:"format,omitempty" yaml:"format,omitempty"`
	Family            string   `json:"family,omitempty" yaml:"family,omitempty"`
	Families          []string `json:"families,omitempty" yaml:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size,omitempty" yaml:"parameter_size,omitempty"`
	QuantizationLevel string   `json:"quantization_level,omitempty" yaml:"quantization_level,omitempty"`
}

// ModelInfo is one entry of a server's model listing.
type ModelInfo struct {
	Name       string       `json:"name" yaml:"name"`
	Model      string       `json:"model,omitempty" yaml:"model,omitempty"`
	ModifiedAt string       `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
	Size       int64        `json:"size" yaml:"size"`
	Digest     string       `json:"digest,omitempty" yaml:"digest,omitempty"`
	Details    ModelDetails `json:"details" yaml:"details"`
}

// ModelID returns the name+tag composite id, defaulting the tag to "latest".
func ModelID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}

// ID returns the composite id of the model.
func (m ModelInfo) ID() string {
	return ModelID(m.Name)
}

type InstallState string

const (
	InstallPending     InstallState = "pending"
	InstallRunning     InstallState = "downloading"
	InstallVerifying   InstallState = "verifying"
	InstallCompleted   InstallState = "completed"
	InstallError       InstallState = "error"
	InstallCanceled    InstallState = "canceled"
	InstallUnconfirmed InstallState = "unconfirmed"
)

// Terminal reports whether the server will not report further progress.
func (s InstallState) Terminal() bool {
	switch s {
	case InstallCompleted, InstallError, InstallCanceled:
		return true
	}
	return false
}

// ModelInstallation is the progress of a server-side install task.
type ModelInstallation struct {
	TaskID    string       `json:"task_id"`
	Name      string       `json:"name,omitempty"`
	State     InstallState `json:"state"`
	Progress  float64      `json:"progress"`
	Completed int64        `json:"completed,omitempty"`
	Total     int64        `json:"total,omitempty"`
	Message   string       `json:"message,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type OperationKind string

const (
	OperationInstall OperationKind = "install"
	OperationDelete  OperationKind = "delete"
)

// ModelOperation is an in-flight install or delete as shown in the panel.
// It lives only in memory.
type ModelOperation struct {
	ID        string        `json:"id" yaml:"id"`
	Kind      OperationKind `json:"kind" yaml:"kind"`
	ServerID  string        `json:"serverId" yaml:"serverId"`
	ModelName string        `json:"modelName" yaml:"modelName"`
	TaskID    string        `json:"taskId,omitempty" yaml:"taskId,omitempty"`
	State     InstallState  `json:"state" yaml:"state"`
	Progress  float64       `json:"progress" yaml:"progress"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	UpdatedAt time.Time     `json:"updatedAt" yaml:"updatedAt"`
}
