package mocks

import (
	"context"
	"encoding/json"
	"io"
	"net/url"

	"braindrive-settings/internal/hostapi"
)

type HostAPIMock struct {
	GetFunc    func(ctx context.Context, path string, query url.Values, out any) error
	PostFunc   func(ctx context.Context, path string, body, out any) error
	DeleteFunc func(ctx context.Context, path string, body, out any) error
	StreamFunc func(ctx context.Context, path string, query url.Values) (io.ReadCloser, error)
}

func (m *HostAPIMock) Get(ctx context.Context, path string, query url.Values, out any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path, query, out)
	}
	return nil
}

func (m *HostAPIMock) Post(ctx context.Context, path string, body, out any) error {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, path, body, out)
	}
	return nil
}

func (m *HostAPIMock) Delete(ctx context.Context, path string, body, out any) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, path, body, out)
	}
	return nil
}

func (m *HostAPIMock) Stream(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, path, query)
	}
	return nil, hostapi.ErrStreamUnsupported
}

// Fill decodes raw JSON into out the way the HTTP client would.
func Fill(out any, raw string) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}
