// Package constants provides shared constants used throughout the services tooling.
// This includes file permissions, naming conventions for definition files and the
// defaults used when no configuration is supplied.
package constants

import "time"

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Definition file constants
const (
	// DefinitionExtension is the extension of per-service definition files
	DefinitionExtension = ".yml"

	// BlockedServicesField is the JSON field of the source artifact that holds the records
	BlockedServicesField = "blocked_services"

	// IDField is the record field holding the service identifier
	IDField = "id"
)

// Default values
const (
	// DefaultSourcePath is the default location of the built services artifact
	DefaultSourcePath = "dist/services.json"

	// DefaultServicesDir is the default directory of definition files
	DefaultServicesDir = "services"

	// DefaultWatchDebounce is how long watch mode waits for file events to settle
	DefaultWatchDebounce = 500 * time.Millisecond
)

// Configuration
const (
	// ConfigFileName is the config file name searched in $HOME and the working directory
	ConfigFileName = ".services"

	// EnvPrefix prefixes environment variables read by the CLI (SERVICES_SOURCE, ...)
	EnvPrefix = "SERVICES"
)
