package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from ~/.vex/config.yaml (or configFile if given)
// and VEX_* environment variables, layered over Default(). A missing config
// file is not an error; a malformed or invalid one is.
func Load(configFile string) (Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variable support: VEX_API_URL overrides api_url.
	v.SetEnvPrefix("VEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	def := Default()
	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("require_auth", def.RequireAuth)
	v.SetDefault("login_path", def.LoginPath)
	v.SetDefault("landing_path", def.LandingPath)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("log_level", def.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// findConfigFile looks for ~/.vex/config.yaml or .yml.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(home, ".vex", "config"+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// bindEnvKeys binds every config key so env vars work without a config file.
func bindEnvKeys(v *viper.Viper) {
	_ = v.BindEnv("api_url")
	_ = v.BindEnv("require_auth")
	_ = v.BindEnv("login_path")
	_ = v.BindEnv("landing_path")
	_ = v.BindEnv("timeout")
	_ = v.BindEnv("log_level")
}
