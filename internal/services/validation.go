package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"braindrive-settings/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrValidation marks input rejected before any request was made.
var ErrValidation = errors.New("validation failed")

var serverFieldLabels = map[string]string{
	"ID":            "Server id",
	"ServerName":    "Server name",
	"ServerAddress": "Server address",
}

// validateServer checks the required fields of a server configuration and
// returns a message naming the first offending field.
func validateServer(cfg models.ServerConfig) error {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	cfg.ServerAddress = strings.TrimSpace(cfg.ServerAddress)

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fe := verrs[0]
	label := serverFieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrValidation, label)
	case "url":
		return fmt.Errorf("%w: %s must be a valid URL", ErrValidation, label)
	}
	return fmt.Errorf("%w: %s is invalid", ErrValidation, label)
}
