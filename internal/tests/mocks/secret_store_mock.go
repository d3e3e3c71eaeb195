package mocks

type SecretStoreMock struct {
	GetAPIKeyFunc    func(serverID string) (string, error)
	StoreAPIKeyFunc  func(serverID, apiKey string) error
	DeleteAPIKeyFunc func(serverID string) error
}

func (m *SecretStoreMock) GetAPIKey(serverID string) (string, error) {
	if m.GetAPIKeyFunc != nil {
		return m.GetAPIKeyFunc(serverID)
	}
	return "", nil
}

func (m *SecretStoreMock) StoreAPIKey(serverID, apiKey string) error {
	if m.StoreAPIKeyFunc != nil {
		return m.StoreAPIKeyFunc(serverID, apiKey)
	}
	return nil
}

func (m *SecretStoreMock) DeleteAPIKey(serverID string) error {
	if m.DeleteAPIKeyFunc != nil {
		return m.DeleteAPIKeyFunc(serverID)
	}
	return nil
}
