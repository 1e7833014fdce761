package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Trakt       TraktConfig       `mapstructure:"trakt" validate:"required"`
	Preferences PreferencesConfig `mapstructure:"preferences" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// TraktConfig contains settings for the remote Trakt service.
type TraktConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	// DeferredMessage is shown when an action has to wait behind another one.
	DeferredMessage string `mapstructure:"deferred_message"`
}

// Preference store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// PreferencesConfig selects where account preferences (username, password,
// migration flag) live.
type PreferencesConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory file postgres"`
	File    string `mapstructure:"file" validate:"required_if=Backend file"`
	// Watch enables change notifications for edits made outside the process.
	Watch bool `mapstructure:"watch"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Password hash algorithms
const (
	HashSHA1   = "sha1"
	HashBcrypt = "bcrypt"
)

// AuthConfig contains the password hashing settings.
type AuthConfig struct {
	PasswordHash string `mapstructure:"password_hash" validate:"required,oneof=sha1 bcrypt"`
	BcryptCost   int    `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
}
