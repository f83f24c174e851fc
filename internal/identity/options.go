package identity

import "github.com/phrazzld/keystone-api/internal/config"

// PasswordOptions is the password policy applied on create and change.
type PasswordOptions struct {
	RequiredLength         int
	RequiredUniqueChars    int
	RequireDigit           bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireNonAlphanumeric bool
}

// UserOptions constrains user names and emails.
type UserOptions struct {
	RequireUniqueEmail bool
	// AllowedUserNameCharacters lists every permitted rune. Empty allows any.
	AllowedUserNameCharacters string
}

// Options groups the identity policy.
type Options struct {
	Password PasswordOptions
	User     UserOptions
}

// DefaultOptions returns the host policy: six characters, no character class
// requirements, unique email.
func DefaultOptions() Options {
	return Options{
		Password: PasswordOptions{
			RequiredLength:      6,
			RequiredUniqueChars: 1,
		},
		User: UserOptions{
			RequireUniqueEmail:        true,
			AllowedUserNameCharacters: config.DefaultAllowedUserNameCharacters,
		},
	}
}

// OptionsFromConfig converts the loaded identity configuration.
func OptionsFromConfig(cfg config.IdentityConfig) Options {
	return Options{
		Password: PasswordOptions{
			RequiredLength:         cfg.Password.RequiredLength,
			RequiredUniqueChars:    cfg.Password.RequiredUniqueChars,
			RequireDigit:           cfg.Password.RequireDigit,
			RequireLowercase:       cfg.Password.RequireLowercase,
			RequireUppercase:       cfg.Password.RequireUppercase,
			RequireNonAlphanumeric: cfg.Password.RequireNonAlphanumeric,
		},
		User: UserOptions{
			RequireUniqueEmail:        cfg.User.RequireUniqueEmail,
			AllowedUserNameCharacters: cfg.User.AllowedUserNameCharacters,
		},
	}
}
