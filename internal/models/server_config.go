package models

type ConnectionStatus string

const (
	ConnectionIdle     ConnectionStatus = "idle"
	ConnectionChecking ConnectionStatus = "checking"
	ConnectionSuccess  ConnectionStatus = "success"
	ConnectionError    ConnectionStatus = "error"
)

// ServerConfig describes one remote model server the user can connect to.
type ServerConfig struct {
	ID               string           `json:"id" yaml:"id" validate:"required"`
	ServerName       string           `json:"serverName" yaml:"serverName" validate:"required"`
	ServerAddress    string           `json:"serverAddress" yaml:"serverAddress" validate:"required,url"`
	APIKey           string           `json:"apiKey" yaml:"-"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus" yaml:"connectionStatus"`
}

// ServerSettings is the value stored under the ollama_servers_settings definition.
type ServerSettings struct {
	Servers []ServerConfig `json:"servers"`
}

// ServerPatch carries the editable fields of a server; nil fields are left alone.
type ServerPatch struct {
	ServerName    *string `json:"serverName,omitempty"`
	ServerAddress *string `json:"serverAddress,omitempty"`
	APIKey        *string `json:"apiKey,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p ServerPatch) Apply(c ServerConfig) ServerConfig {
	if p.ServerName != nil {
		c.ServerName = *p.ServerName
	}
	if p.ServerAddress != nil {
		c.ServerAddress = *p.ServerAddress
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	return c
}
