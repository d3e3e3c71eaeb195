package mocks

import (
	"context"

	"braindrive-settings/internal/models"
)

type LocalPreferenceRepositoryMock struct {
	GetFunc func(ctx context.Context, key string) (*models.LocalPreference, error)
	PutFunc func(ctx context.Context, key, value string) error
}

func (m *LocalPreferenceRepositoryMock) Get(ctx context.Context, key string) (*models.LocalPreference, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, nil
}

func (m *LocalPreferenceRepositoryMock) Put(ctx context.Context, key, value string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, value)
	}
	return nil
}
