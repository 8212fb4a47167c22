package logging

import (
	"context"

	"github.com/goliatone/go-layouts/pkg/interfaces"
)

const (
	rootModule        = "layouts"
	blocksModule      = "layouts.blocks"
	layoutsModule     = "layouts.layouts"
	collectionsModule = "layouts.collections"
	engineModule      = "layouts.engine"
	commandsModule    = "layouts.commands"
)

// Field keys shared by every handler so entries can be filtered consistently.
const (
	FieldOperation = "operation"
	FieldBlockID   = "block_id"
	FieldLayoutID  = "layout_id"
	FieldStatus    = "status"
	FieldLocale    = "locale"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as structured context.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// BlocksLogger returns the logger namespace reserved for the block handler.
func BlocksLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, blocksModule)
}

// LayoutsLogger returns the logger namespace reserved for the layout handler.
func LayoutsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, layoutsModule)
}

// CollectionsLogger returns the logger namespace reserved for the collection linker.
func CollectionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, collectionsModule)
}

// EngineLogger returns the logger namespace reserved for transaction handling.
func EngineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, engineModule)
}

// CommandsLogger returns the logger namespace reserved for status commands.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// ForOperation scopes logger to a handler operation. Empty values are skipped.
func ForOperation(logger interfaces.Logger, operation string, fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(fields)+1)
	if operation != "" {
		merged[FieldOperation] = operation
	}
	for key, value := range fields {
		if value == nil || value == "" {
			continue
		}
		merged[key] = value
	}
	return WithFields(logger, merged)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
