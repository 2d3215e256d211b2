// Package config loads the container-apps client settings.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/container-apps/config.toml (default)
//  3. If the config file doesn't exist, fall back to built-in defaults
//  4. CONTAINER_APPS_* environment variables override file values
//  5. Blank values use defaults
//
// # Default Values
//
//   - backend_command: cockpit-container-apps
//   - superuser_command: none (privileged commands run unelevated)
//   - command_timeout: 30s
//   - search_debounce: 300ms
//   - default_store: none (first store reported by the backend)
//   - log_file: ~/.local/state/container-apps/container-apps.log
//   - log_level: info
//
// # TOML Format
//
//	backend_command = "cockpit-container-apps"
//	superuser_command = "sudo -n"
//	command_timeout = "30s"
//	search_debounce = "300ms"
//	default_store = "marine"
//	log_level = "debug"
//
// superuser_command is split on whitespace and prefixed to install, remove
// and set-config invocations. Tilde expansion is performed on log_file.
//
// # Environment Overrides
//
// Each key has an upper-case environment variable, for example
// CONTAINER_APPS_COMMAND_TIMEOUT=10s or CONTAINER_APPS_LOG_LEVEL=debug.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - Durations that do not parse or are not positive
//   - Unknown log levels
package config
