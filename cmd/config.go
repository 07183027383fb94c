package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "MATCHMAKER"
	configName = "matchmaker"
)

var validate = validator.New()

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ModelPath       string        `mapstructure:"model_path" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// MCPConfig configures the agent tool bridge. In http mode the bridge calls a
// running service; in local mode it loads the artifact itself.
type MCPConfig struct {
	Mode      string        `mapstructure:"mode" validate:"oneof=http local"`
	APIURL    string        `mapstructure:"api_url" validate:"required_if=Mode http"`
	ModelPath string        `mapstructure:"model_path" validate:"required_if=Mode local"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// AppConfig is the matchmaker.yaml structure.
type AppConfig struct {
	Serve ServeConfig `mapstructure:"serve"`
	MCP   MCPConfig   `mapstructure:"mcp"`
}

// newViper layers defaults, the config file and MATCHMAKER_* env vars.
// cfgFile overrides the matchmaker.yaml search in the working directory.
func newViper(cfgFile string) (*viper.Viper, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)                          // e.g., MATCHMAKER_SERVE_ADDR
	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names

	v.SetDefault("serve.addr", ":8000")
	v.SetDefault("serve.model_path", "best_llm_matchmaker_model.zst")
	v.SetDefault("serve.allowed_origins", []string{"*"})
	v.SetDefault("serve.read_timeout", 10*time.Second)
	v.SetDefault("serve.write_timeout", 10*time.Second)
	v.SetDefault("serve.shutdown_timeout", 5*time.Second)

	v.SetDefault("mcp.mode", "http")
	v.SetDefault("mcp.api_url", "http://localhost:8000")
	v.SetDefault("mcp.model_path", "")
	v.SetDefault("mcp.timeout", 5*time.Second)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(configName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		logrus.Infof("Using config file: %s", v.ConfigFileUsed())
	}
	return v, nil
}

// loadAppConfig reads and validates the whole configuration.
func loadAppConfig(cfgFile string) (*AppConfig, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation error: %w", err)
	}
	return nil
}
