package domain

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by LoadConfig.
const (
	EnvPAT             = "AZURE_DEVOPS_PAT"
	EnvOrganizationURL = "AZURE_DEVOPS_ORGANIZATION_URL"
	EnvDefaultProject  = "AZURE_DEVOPS_DEFAULT_PROJECT"
	EnvDefaultTeam     = "AZURE_DEVOPS_DEFAULT_TEAM"
	EnvLogLevel        = "LOG_LEVEL"
	EnvTransport       = "MCP_TRANSPORT"
	EnvHTTPHost        = "MCP_HTTP_HOST"
	EnvHTTPPort        = "MCP_HTTP_PORT"
)

// Config represents the server configuration.
// It is constructed once at startup and treated as immutable afterwards;
// every component receives it explicitly rather than reading the environment.
type Config struct {
	// PAT is the Azure DevOps personal access token. Required.
	PAT string `yaml:"-"`

	// OrganizationURL is the organization base URL
	// (e.g., "https://dev.azure.com/myorg"). Required.
	OrganizationURL string `yaml:"organization_url"`

	// DefaultProject is used when a tool call omits the project parameter.
	DefaultProject string `yaml:"default_project"`

	// DefaultTeam is used for team-scoped operations (sprint lookups).
	DefaultTeam string `yaml:"default_team"`

	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`

	Transport TransportConfig `yaml:"transport"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `yaml:"type"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoadConfig builds the configuration for the server.
//
// Sources, in increasing precedence:
//  1. the optional YAML config file at configPath ("" skips it),
//  2. a .env file in the working directory (loaded into the process
//     environment without overriding variables already set),
//  3. process environment variables.
//
// The PAT is only ever read from the environment. Returns an error if a
// required setting is missing or a value fails validation; callers are
// expected to treat that as fatal.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is not an error; explicit environment wins.
	_ = godotenv.Load()

	config := &Config{
		LogLevel: "info",
		Transport: TransportConfig{
			Type: "stdio",
		},
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", configPath)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	config.applyEnvironment()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvironment overlays environment variables onto the configuration.
func (c *Config) applyEnvironment() {
	c.PAT = os.Getenv(EnvPAT)

	if v := os.Getenv(EnvOrganizationURL); v != "" {
		c.OrganizationURL = v
	}
	if v := os.Getenv(EnvDefaultProject); v != "" {
		c.DefaultProject = v
	}
	if v := os.Getenv(EnvDefaultTeam); v != "" {
		c.DefaultTeam = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Transport.Type = v
	}
	if v := os.Getenv(EnvHTTPHost); v != "" {
		c.Transport.HTTP.Host = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Transport.HTTP.Port = port
		}
	}
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if c.PAT == "" {
		errors = append(errors, fmt.Sprintf("%s environment variable is required", EnvPAT))
	}

	if c.OrganizationURL == "" {
		errors = append(errors, fmt.Sprintf("%s environment variable is required", EnvOrganizationURL))
	} else {
		parsedURL, err := url.Parse(c.OrganizationURL)
		if err != nil {
			errors = append(errors, fmt.Sprintf("organization URL is invalid: %v", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, "organization URL must use http or https scheme")
		} else if parsedURL.Host == "" {
			errors = append(errors, "organization URL must include a host")
		}
	}

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
