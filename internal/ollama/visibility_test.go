package ollama_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"braindrive-settings/internal/models"
	"braindrive-settings/internal/ollama"
)

func TestConfirmVisible(t *testing.T) {
	appearsLater := func() ollama.ListFunc {
		calls := 0
		return func(context.Context) ([]models.ModelInfo, error) {
			calls++
			if calls < 3 {
				return []models.ModelInfo{{Name: "other:latest"}}, nil
			}
			return []models.ModelInfo{{Name: "mistral:latest"}}, nil
		}
	}
	never := func(context.Context) ([]models.ModelInfo, error) {
		return []models.ModelInfo{{Name: "other:latest"}}, nil
	}
	failing := func(context.Context) ([]models.ModelInfo, error) {
		return nil, errors.New("listing down")
	}

	cases := []struct {
		name string
		list ollama.ListFunc
		want ollama.Visibility
	}{
		{"appears after a few polls", appearsLater(), ollama.Visible},
		{"listed but never present", never, ollama.NotVisible},
		{"listing never succeeds", failing, ollama.Unverifiable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ollama.ConfirmVisible(context.Background(), tc.list, "mistral", 200*time.Millisecond, 5*time.Millisecond)
			assert.Equal(t, tc.want, got, got.String())
		})
	}
}
