package preference

import (
	"errors"

	"braindrive-settings/internal/bridge"
	"braindrive-settings/internal/hostapi"
)

var errInvalidShape = errors.New("setting value has unexpected shape")

// User-facing messages stored in panel state.
const (
	MsgServiceUnavailable = "Settings service not available"
	MsgNetwork            = "Network error while contacting the settings service"
	MsgLoadFailed         = "Failed to load settings, using defaults"
	MsgSaveFailed         = "Failed to save settings"
)

// LoadMessage maps a load failure to the message shown in the panel.
func LoadMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bridge.ErrUnavailable):
		return MsgServiceUnavailable
	case errors.Is(err, hostapi.ErrNetwork):
		return MsgNetwork
	}
	return MsgLoadFailed
}

// SaveMessage maps a save failure to the message shown in the panel.
func SaveMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bridge.ErrUnavailable):
		return MsgServiceUnavailable
	case errors.Is(err, hostapi.ErrNetwork):
		return MsgNetwork
	}
	return MsgSaveFailed
}
