package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "KEYSTONE"

// DefaultAllowedUserNameCharacters is the default set of characters a user name may contain.
const DefaultAllowedUserNameCharacters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file when path is not empty.
// With an empty path, an optional config.yaml in the working directory is used.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a Config against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.https_port", 0)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", EnvironmentProduction)

	v.SetDefault("connection_strings.server_context", "Data Source=server.db")
	v.SetDefault("connection_strings.security_context", "Data Source=security.db")

	v.SetDefault("jwt_secret", "")

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.session_lifetime_minutes", 14*24*60)
	v.SetDefault("auth.login_path", "/auth/login")
	v.SetDefault("auth.cookie_name", "keystone_session")

	v.SetDefault("identity.password.required_length", 6)
	v.SetDefault("identity.password.required_unique_chars", 1)
	v.SetDefault("identity.password.require_digit", false)
	v.SetDefault("identity.password.require_lowercase", false)
	v.SetDefault("identity.password.require_uppercase", false)
	v.SetDefault("identity.password.require_non_alphanumeric", false)
	v.SetDefault("identity.user.require_unique_email", true)
	v.SetDefault("identity.user.allowed_user_name_characters", DefaultAllowedUserNameCharacters)

	v.SetDefault("bootstrap_admin.username", "")
	v.SetDefault("bootstrap_admin.email", "")
	v.SetDefault("bootstrap_admin.password", "")
}

// bindEnvs makes every defaulted key visible to Unmarshal when it is only set
// through the environment.
func bindEnvs(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
}
