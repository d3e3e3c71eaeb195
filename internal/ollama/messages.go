package ollama

import (
	"errors"
	"net/http"

	"braindrive-settings/internal/hostapi"
)

const (
	MsgConnected         = "Connected successfully"
	MsgValidationError   = "Validation error: check the server address and API key"
	MsgBadRequest        = "Bad request: the server address is not valid"
	MsgUnreachable       = "Server unreachable: make sure the server is running and reachable"
	MsgNetworkError      = "Network error: could not reach the backend"
	MsgConnectionFailed  = "Connection failed"
	MsgTaskLost          = "Install aborted: the server restarted and lost the task"
	MsgNotVisible        = "Install reported complete but the model did not appear in the listing"
	MsgVerifyUnavailable = "Install reported complete but the model listing could not be checked"
)

// ConnectionMessage maps the outcome of a connection test to the message
// shown next to the server.
func ConnectionMessage(err error) string {
	if err == nil {
		return MsgConnected
	}
	if code, ok := hostapi.StatusCode(err); ok {
		switch code {
		case http.StatusUnprocessableEntity:
			return MsgValidationError
		case http.StatusBadRequest:
			return MsgBadRequest
		case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return MsgUnreachable
		}
		return MsgConnectionFailed
	}
	if errors.Is(err, hostapi.ErrNetwork) {
		return MsgNetworkError
	}
	return MsgConnectionFailed
}
