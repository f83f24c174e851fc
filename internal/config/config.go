package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server            ServerConfig            `mapstructure:"server"             validate:"required"`
	ConnectionStrings ConnectionStringsConfig `mapstructure:"connection_strings" validate:"required"`
	JWTSecret         string                  `mapstructure:"jwt_secret"         validate:"required,min=32"`
	Auth              AuthConfig              `mapstructure:"auth"               validate:"required"`
	Identity          IdentityConfig          `mapstructure:"identity"`
	BootstrapAdmin    BootstrapAdminConfig    `mapstructure:"bootstrap_admin"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"          validate:"required,gt=0,lt=65536"`
	HTTPSPort   int    `mapstructure:"https_port"    validate:"gte=0,lt=65536"`
	TLSCertFile string `mapstructure:"tls_cert_file" validate:"required_with=TLSKeyFile"`
	TLSKeyFile  string `mapstructure:"tls_key_file"  validate:"required_with=TLSCertFile"`
	LogLevel    string `mapstructure:"log_level"     validate:"required,oneof=debug info warn error"`
	Environment string `mapstructure:"environment"   validate:"required,oneof=development production"`
}

// IsDevelopment reports whether developer diagnostics should be enabled.
func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// TLSEnabled reports whether a certificate pair has been configured.
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Environment names accepted by ServerConfig.Environment.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// ConnectionStringsConfig holds one connection string per persistence context.
// Application data and identity data never share a connection.
type ConnectionStringsConfig struct {
	ServerContext   string `mapstructure:"server_context"   validate:"required,nefield=SecurityContext"`
	SecurityContext string `mapstructure:"security_context" validate:"required"`
}

// AuthConfig contains cookie and bearer authentication settings.
type AuthConfig struct {
	TokenLifetimeMinutes   int    `mapstructure:"token_lifetime_minutes"   validate:"required,gt=0"`
	SessionLifetimeMinutes int    `mapstructure:"session_lifetime_minutes" validate:"required,gt=0"`
	LoginPath              string `mapstructure:"login_path"               validate:"required,startswith=/"`
	CookieName             string `mapstructure:"cookie_name"              validate:"required"`
}

// IdentityConfig mirrors the identity options applied to user management.
type IdentityConfig struct {
	Password PasswordConfig `mapstructure:"password"`
	User     UserConfig     `mapstructure:"user"`
}

// PasswordConfig configures the password policy.
type PasswordConfig struct {
	RequiredLength         int  `mapstructure:"required_length"          validate:"gte=1,lte=72"`
	RequiredUniqueChars    int  `mapstructure:"required_unique_chars"    validate:"gte=0"`
	RequireDigit           bool `mapstructure:"require_digit"`
	RequireLowercase       bool `mapstructure:"require_lowercase"`
	RequireUppercase       bool `mapstructure:"require_uppercase"`
	RequireNonAlphanumeric bool `mapstructure:"require_non_alphanumeric"`
}

// UserConfig configures user name and email constraints.
type UserConfig struct {
	RequireUniqueEmail        bool   `mapstructure:"require_unique_email"`
	AllowedUserNameCharacters string `mapstructure:"allowed_user_name_characters"`
}

// BootstrapAdminConfig optionally describes an administrator created at startup.
// All three fields must be set together.
type BootstrapAdminConfig struct {
	UserName string `mapstructure:"username" validate:"required_with=Password"`
	Email    string `mapstructure:"email"    validate:"required_with=UserName"`
	Password string `mapstructure:"password" validate:"required_with=UserName"`
}

// Enabled reports whether an administrator should be bootstrapped.
func (c BootstrapAdminConfig) Enabled() bool {
	return c.UserName != "" && c.Password != ""
}
