package commands

import (
	"strings"

	"github.com/goliatone/go-layouts/internal/logging"
	"github.com/goliatone/go-layouts/pkg/interfaces"
)

// CommandLogger returns the logger of one command module with the fields
// shared by every command execution.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.CommandsLogger(provider), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
