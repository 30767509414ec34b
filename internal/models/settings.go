package models

// AutoStartMode selects which launcher front end the scheduled task runs
type AutoStartMode string

const (
	AutoStartGUI AutoStartMode = "gui"
	AutoStartCLI AutoStartMode = "cli"
)

func (m AutoStartMode) Valid() bool {
	return m == AutoStartGUI || m == AutoStartCLI
}

// PortConfig is the record persisted in server_config.json
type PortConfig struct {
	Port                  int           `json:"port"`
	AutoStartEnabled      bool          `json:"autoStartEnabled"`
	AutoStartMode         AutoStartMode `json:"autoStartMode"`
	AutoStartDelaySeconds int           `json:"autoStartDelaySeconds"`
	FirewallPort          *int          `json:"firewallPort"`
}
