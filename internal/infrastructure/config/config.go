package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Authentication methods. Exactly one is active per process.
const (
	MethodAPIKey   = "api-key"
	MethodKeycloak = "keycloak"
	MethodUsers    = "users"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig is constructed once at process start and passed by
// reference to every guard. Guards never re-read the environment;
// tests mutate the struct directly.
type AuthConfig struct {
	// ConfiguredMethod is the explicit method selection. Anything
	// other than the three valid values falls through to the
	// resolution order in Method.
	ConfiguredMethod string `env:"AUTHENTICATION_METHOD"`
	StaticAPIKey     string `env:"STATIC_API_KEY"`
	JWTSecret        string `env:"JWT_SECRET"`
	SignupDisabled   bool   `env:"SIGNUP_DISABLED, default=false"`
	KeycloakJWKSURL  string `env:"KEYCLOAK_JWKS_URL"`
}

// Method resolves the active authentication method: the explicit
// selection when valid, else api-key when a static key is configured,
// else keycloak (the legacy default). Pure and side-effect-free, so it
// is safe to call on every request.
func (a *AuthConfig) Method() string {
	switch a.ConfiguredMethod {
	case MethodAPIKey, MethodKeycloak, MethodUsers:
		return a.ConfiguredMethod
	}
	if a.StaticAPIKey != "" {
		return MethodAPIKey
	}
	return MethodKeycloak
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=authd"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
