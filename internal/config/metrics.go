package config

import (
	"fmt"
	"net"
	"strconv"
)

// MetricsConfig defines the server's metric configuration
type MetricsConfig struct {
	// Listen IP of the /metrics endpoint
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (cfg *MetricsConfig) Validate() error {
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return fmt.Errorf("metrics server port must be between 1024 and 65535 (inclusive)")
	}

	ip := net.ParseIP(cfg.Host)
	if ip == nil {
		return fmt.Errorf("invalid metrics server host: %v", cfg.Host)
	}

	return nil
}

// GetMetricsAddress is the listen address of the metrics server.
func (cfg *MetricsConfig) GetMetricsAddress() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
