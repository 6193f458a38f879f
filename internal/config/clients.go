package config

import (
	"errors"
	"fmt"
	"net/url"
)

type ClientsConfig struct {
	Custody  *CollaboratorConfig `mapstructure:"custody"`
	Registry *CollaboratorConfig `mapstructure:"registry"`
	Issuance *CollaboratorConfig `mapstructure:"issuance"`
}

// CollaboratorConfig describes how to reach one external collaborator service.
type CollaboratorConfig struct {
	Host string `mapstructure:"host"`
	// Timeout in milliseconds
	Timeout int `mapstructure:"timeout"`
}

func (cfg *ClientsConfig) Validate() error {
	if cfg.Custody == nil || cfg.Registry == nil || cfg.Issuance == nil {
		return errors.New("custody, registry and issuance clients must all be configured")
	}
	if err := cfg.Custody.Validate(); err != nil {
		return fmt.Errorf("custody: %w", err)
	}
	if err := cfg.Registry.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := cfg.Issuance.Validate(); err != nil {
		return fmt.Errorf("issuance: %w", err)
	}
	return nil
}

func (cfg *CollaboratorConfig) Validate() error {
	if cfg.Host == "" {
		return errors.New("host cannot be empty")
	}

	if cfg.Timeout <= 0 {
		return errors.New("timeout cannot be smaller or equal to 0")
	}

	parsedURL, err := url.ParseRequestURI(cfg.Host)
	if err != nil {
		return errors.New("invalid host")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("host must start with http or https")
	}

	return nil
}
