package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"braindrive-settings/internal/hostapi"
	"braindrive-settings/internal/models"
)

// Seed creates the default instance of every definition the user does not
// have yet. It returns the names of the instances it created.
func Seed(ctx context.Context, m *Manifest, api hostapi.API, userID string) ([]string, error) {
	if userID == "" {
		userID = models.CurrentUser
	}

	var created []string
	for _, def := range m.Definitions {
		existing, err := hostapi.FindInstance(ctx, api, def.ID, models.ScopeUser, userID)
		if err != nil {
			return created, fmt.Errorf("check instance %s: %w", def.ID, err)
		}
		if existing != nil {
			continue
		}

		raw, err := json.Marshal(def.DefaultValue)
		if err != nil {
			return created, err
		}
		if _, err := hostapi.SaveInstance(ctx, api, hostapi.Instance{
			DefinitionID: def.ID,
			Name:         def.Name,
			Value:        raw,
			Scope:        models.ScopeUser,
			UserID:       userID,
		}); err != nil {
			return created, fmt.Errorf("create instance %s: %w", def.ID, err)
		}
		created = append(created, def.Name)
	}
	return created, nil
}
