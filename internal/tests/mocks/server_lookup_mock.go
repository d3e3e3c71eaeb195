package mocks

import (
	"fmt"

	"braindrive-settings/internal/models"
)

type ServerLookupMock struct {
	ServerFunc func(id string) (models.ServerConfig, error)
}

func (m *ServerLookupMock) Server(id string) (models.ServerConfig, error) {
	if m.ServerFunc != nil {
		return m.ServerFunc(id)
	}
	return models.ServerConfig{}, fmt.Errorf("server %s not found", id)
}
