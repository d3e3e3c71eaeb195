package hostapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const InstancesPath = "/api/v1/settings/instances"

// Instance is a persisted setting value as exchanged with the host. Value is
// kept raw: the host may send an object or a serialized JSON string.
type Instance struct {
	ID           string          `json:"id,omitempty"`
	DefinitionID string          `json:"definition_id"`
	Name         string          `json:"name,omitempty"`
	Value        json.RawMessage `json:"value"`
	Scope        string          `json:"scope"`
	UserID       string          `json:"user_id"`
	PageID       *string         `json:"page_id,omitempty"`
}

// FindInstance returns the first instance matching the definition, scope and
// user, or nil when none exists.
func FindInstance(ctx context.Context, api API, definitionID, scope, userID string) (*Instance, error) {
	q := url.Values{}
	q.Set("definition_id", definitionID)
	q.Set("scope", scope)
	q.Set("user_id", userID)

	var raw json.RawMessage
	if err := api.Get(ctx, InstancesPath, q, &raw); err != nil {
		return nil, err
	}
	items, err := DecodeList[Instance](raw, "data", "instances", "items")
	if err != nil {
		return nil, fmt.Errorf("instances for %s: %w", definitionID, err)
	}
	for i := range items {
		if items[i].DefinitionID == "" || items[i].DefinitionID == definitionID {
			return &items[i], nil
		}
	}
	return nil, nil
}

// SaveInstance creates or, when inst.ID is set, updates an instance. The
// host's echo of the stored record is returned when it sends one.
func SaveInstance(ctx context.Context, api API, inst Instance) (*Instance, error) {
	var raw json.RawMessage
	if err := api.Post(ctx, InstancesPath, inst, &raw); err != nil {
		return nil, err
	}
	saved := inst
	if len(raw) > 0 {
		items, err := DecodeList[Instance](raw, "data")
		if err == nil && len(items) > 0 && items[0].ID != "" {
			saved.ID = items[0].ID
		}
	}
	return &saved, nil
}
