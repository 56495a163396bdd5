package server

import (
	"time"

	"github.com/spf13/viper"

	"github.com/inferloop/tabanon/pkg/constants"
)

// Config contains server configuration
type Config struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	MetricsPort     int           `yaml:"metrics_port" json:"metrics_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	EnableMetrics   bool          `yaml:"enable_metrics" json:"enable_metrics"`
	MaxRequestSize  int64         `yaml:"max_request_size" json:"max_request_size"`
}

// getDefaultConfig returns the default server configuration
func getDefaultConfig() *Config {
	return &Config{
		Host:            constants.DefaultHost,
		Port:            constants.DefaultPort,
		MetricsPort:     constants.DefaultMetricsPort,
		ReadTimeout:     constants.DefaultReadTimeout,
		WriteTimeout:    constants.DefaultWriteTimeout,
		IdleTimeout:     constants.DefaultIdleTimeout,
		ShutdownTimeout: constants.DefaultShutdownTimeout,
		EnableMetrics:   true,
		MaxRequestSize:  constants.MaxRequestSize,
	}
}

// ConfigFromViper builds a server config from viper, falling back to the
// defaults for unset keys.
func ConfigFromViper(v *viper.Viper) *Config {
	cfg := getDefaultConfig()
	if v == nil {
		return cfg
	}

	if v.IsSet("server.host") {
		cfg.Host = v.GetString("server.host")
	}
	if v.IsSet("server.port") {
		cfg.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.metrics_port") {
		cfg.MetricsPort = v.GetInt("server.metrics_port")
	}
	if v.IsSet("server.read_timeout") {
		cfg.ReadTimeout = v.GetDuration("server.read_timeout")
	}
	if v.IsSet("server.write_timeout") {
		cfg.WriteTimeout = v.GetDuration("server.write_timeout")
	}
	if v.IsSet("server.idle_timeout") {
		cfg.IdleTimeout = v.GetDuration("server.idle_timeout")
	}
	if v.IsSet("server.shutdown_timeout") {
		cfg.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	}
	if v.IsSet("server.enable_metrics") {
		cfg.EnableMetrics = v.GetBool("server.enable_metrics")
	}
	if v.IsSet("server.max_request_size") {
		cfg.MaxRequestSize = v.GetInt64("server.max_request_size")
	}
	return cfg
}
