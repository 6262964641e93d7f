// Package config provides configuration loading for the vex client.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the client configuration. One instance is built at startup and
// passed explicitly to the session controller and fragment loader; nothing
// else reads the underlying sources.
type Config struct {
	// APIURL is the base endpoint of the VexScan service.
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	// RequireAuth makes bootstrap redirect to the login surface when no
	// session exists, instead of rendering the signed-out state.
	RequireAuth bool `mapstructure:"require_auth"`

	// LoginPath and LandingPath are the navigation targets of the redirect
	// contract: unauthenticated outcomes go to LoginPath, a completed
	// login/register goes to LandingPath.
	LoginPath   string `mapstructure:"login_path" validate:"required"`
	LandingPath string `mapstructure:"landing_path" validate:"required"`

	// Timeout bounds each HTTP exchange.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:      "http://127.0.0.1:8000",
		RequireAuth: false,
		LoginPath:   "/login",
		LandingPath: "/dashboard",
		Timeout:     30 * time.Second,
		LogLevel:    "info",
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
