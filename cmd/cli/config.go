package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all server configuration
type Config struct {
	HTTPAddress string
	AppBaseURL  string
	JWTSecret   string

	// SandboxMode short-circuits every provider handshake into fabricated
	// local accounts. InMemoryStorage swaps mongo/redis for in-process
	// stores; it is implied by SandboxMode.
	SandboxMode     bool
	InMemoryStorage bool

	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string

	XClientID            string
	XClientSecret        string
	LinkedInClientID     string
	LinkedInClientSecret string

	ProviderCatalogFile string
}

// AppOrigin is the scheme://host portion of the app base URL; popup
// completion messages are restricted to this origin.
func (c *Config) AppOrigin() string {
	parsed, err := url.Parse(c.AppBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return c.AppBaseURL
	}
	return parsed.Scheme + "://" + parsed.Host
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":          "HTTP_ADDRESS",
		"AppBaseURL":           "APP_BASE_URL",
		"JWTSecret":            "JWT_SECRET",
		"SandboxMode":          "SANDBOX_MODE",
		"InMemoryStorage":      "IN_MEMORY_STORAGE",
		"MongoURI":             "MONGO_URI",
		"MongoDatabase":        "MONGO_DATABASE",
		"RedisAddr":            "REDIS_ADDR",
		"RedisPassword":        "REDIS_PASSWORD",
		"XClientID":            "X_CLIENT_ID",
		"XClientSecret":        "X_CLIENT_SECRET",
		"LinkedInClientID":     "LINKEDIN_CLIENT_ID",
		"LinkedInClientSecret": "LINKEDIN_CLIENT_SECRET",
		"ProviderCatalogFile":  "PROVIDER_CATALOG_FILE",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("publora_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.publora")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.SandboxMode {
		config.InMemoryStorage = true
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("AppBaseURL", "http://localhost:8080")
	v.SetDefault("MongoDatabase", "publora")
}

func validateConfig(config *Config) error {
	var missingVars []string

	if config.JWTSecret == "" {
		missingVars = append(missingVars, "JWT_SECRET")
	}

	if !config.InMemoryStorage {
		if config.MongoURI == "" {
			missingVars = append(missingVars, "MONGO_URI")
		}
		if config.RedisAddr == "" {
			missingVars = append(missingVars, "REDIS_ADDR")
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
