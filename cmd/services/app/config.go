package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Restore configuration
	Source        string
	ServicesDir   string
	Field         string
	Extension     string
	MetricsFile   string
	WatchDebounce time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by the root command)
// 2. Environment variables (SERVICES_SOURCE, SERVICES_SERVICES_DIR, ...)
// 3. .env files
// 4. Config file (configFile, or .services.yaml in $HOME or the working directory)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the search is optional.
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),

		ConfigFile: v.ConfigFileUsed(),

		Source:        v.GetString("source"),
		ServicesDir:   v.GetString("services_dir"),
		Field:         v.GetString("field"),
		Extension:     v.GetString("extension"),
		MetricsFile:   v.GetString("metrics_file"),
		WatchDebounce: v.GetDuration("watch_debounce"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, config.Validate()
}

// setDefaults registers the default of every key so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", os.Getenv("NO_COLOR") != "")
	v.SetDefault("source", constants.DefaultSourcePath)
	v.SetDefault("services_dir", constants.DefaultServicesDir)
	v.SetDefault("field", constants.BlockedServicesField)
	v.SetDefault("extension", constants.DefinitionExtension)
	v.SetDefault("metrics_file", "")
	v.SetDefault("watch_debounce", constants.DefaultWatchDebounce)
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Validate checks the values a restore run depends on.
func (c *Config) Validate() error {
	switch {
	case c.Source == "":
		return errors.NewConfigError("config", "source cannot be empty", nil)
	case c.ServicesDir == "":
		return errors.NewConfigError("config", "services_dir cannot be empty", nil)
	case c.Field == "":
		return errors.NewConfigError("config", "field cannot be empty", nil)
	case len(c.Extension) < 2 || !strings.HasPrefix(c.Extension, "."):
		return errors.NewConfigError("config", "extension must start with a dot: "+c.Extension, nil)
	case c.WatchDebounce <= 0:
		return errors.NewConfigError("config", "watch_debounce must be positive", nil)
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so its values win; godotenv never overrides.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
