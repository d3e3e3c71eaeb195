package services

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName     = "braindrive-settings"
	serverKeyPrefix = "server:"
)

// SecretStore keeps server API keys out of the persisted settings blob.
type SecretStore interface {
	GetAPIKey(serverID string) (string, error)
	StoreAPIKey(serverID, apiKey string) error
	DeleteAPIKey(serverID string) error
}

type KeyringService struct {
	ring keyring.Keyring
}

// OpenKeyringService opens the OS keyring, falling back to an encrypted
// file under fileDir on systems without one.
func OpenKeyringService(fileDir string) (*KeyringService, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		FileDir:          fileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(serviceName),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyringService(ring), nil
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

// GetAPIKey returns "" when no key is stored for the server.
func (s *KeyringService) GetAPIKey(serverID string) (string, error) {
	if serverID == "" {
		return "", errors.New("server id is required")
	}
	item, err := s.ring.Get(serverKeyPrefix + serverID)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

// StoreAPIKey saves the key; an empty key removes any stored one.
func (s *KeyringService) StoreAPIKey(serverID, apiKey string) error {
	if serverID == "" {
		return errors.New("server id is required")
	}
	if apiKey == "" {
		return s.DeleteAPIKey(serverID)
	}
	return s.ring.Set(keyring.Item{
		Key:         serverKeyPrefix + serverID,
		Data:        []byte(apiKey),
		Label:       "Model server API key",
		Description: "API key for model server " + serverID,
	})
}

func (s *KeyringService) DeleteAPIKey(serverID string) error {
	if serverID == "" {
		return errors.New("server id is required")
	}
	err := s.ring.Remove(serverKeyPrefix + serverID)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
