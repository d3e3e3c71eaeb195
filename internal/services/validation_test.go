package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"braindrive-settings/internal/models"
)

func TestValidateServer(t *testing.T) {
	valid := models.ServerConfig{ID: "server_1", ServerName: "Local", ServerAddress: "http://localhost:11434"}
	assert.NoError(t, validateServer(valid))

	cases := []struct {
		name string
		edit func(*models.ServerConfig)
		want string
	}{
		{"missing name", func(c *models.ServerConfig) { c.ServerName = "" }, "Server name is required"},
		{"missing address", func(c *models.ServerConfig) { c.ServerAddress = "" }, "Server address is required"},
		{"bad address", func(c *models.ServerConfig) { c.ServerAddress = "not a url" }, "Server address must be a valid URL"},
		{"missing id", func(c *models.ServerConfig) { c.ID = "" }, "Server id is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.edit(&cfg)
			err := validateServer(cfg)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
