package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setRequiredEnv sets the minimum environment for a loadable configuration.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPAT, "test-pat-value")
	t.Setenv(EnvOrganizationURL, "https://dev.azure.com/testorg")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTransport, "")
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvDefaultProject, "TestProject")
	t.Setenv(EnvDefaultTeam, "TestTeam")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.PAT != "test-pat-value" {
		t.Errorf("unexpected PAT %q", config.PAT)
	}
	if config.OrganizationURL != "https://dev.azure.com/testorg" {
		t.Errorf("unexpected organization URL %q", config.OrganizationURL)
	}
	if config.DefaultProject != "TestProject" {
		t.Errorf("unexpected default project %q", config.DefaultProject)
	}
	if config.DefaultTeam != "TestTeam" {
		t.Errorf("unexpected default team %q", config.DefaultTeam)
	}

	// Defaults
	if config.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", config.LogLevel)
	}
	if config.Transport.Type != "stdio" {
		t.Errorf("expected default transport stdio, got %q", config.Transport.Type)
	}
}

func TestLoadConfig_MissingPAT(t *testing.T) {
	t.Setenv(EnvPAT, "")
	t.Setenv(EnvOrganizationURL, "https://dev.azure.com/testorg")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatal("expected error for missing PAT")
	}
	if !strings.Contains(err.Error(), EnvPAT) {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestLoadConfig_MissingOrganizationURL(t *testing.T) {
	t.Setenv(EnvPAT, "test-pat-value")
	t.Setenv(EnvOrganizationURL, "")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatal("expected error for missing organization URL")
	}
}

func TestLoadConfig_InvalidOrganizationURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad scheme", "ftp://dev.azure.com/testorg"},
		{"no host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvPAT, "test-pat-value")
			t.Setenv(EnvOrganizationURL, tt.url)

			if _, err := LoadConfig(""); err == nil {
				t.Errorf("expected error for URL %q", tt.url)
			}
		})
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
default_project: YamlProject
default_team: YamlTeam
log_level: debug
transport:
  type: http
  http:
    host: localhost
    port: 8080
`
	if err := os.WriteFile(configFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DefaultProject != "YamlProject" {
		t.Errorf("unexpected default project %q", config.DefaultProject)
	}
	if config.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", config.LogLevel)
	}
	if config.Transport.Type != "http" {
		t.Errorf("unexpected transport type %q", config.Transport.Type)
	}
	if config.Transport.HTTP.Port != 8080 {
		t.Errorf("unexpected HTTP port %d", config.Transport.HTTP.Port)
	}
}

func TestLoadConfig_EnvironmentOverridesYAML(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvDefaultProject, "EnvProject")

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("default_project: YamlProject\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.DefaultProject != "EnvProject" {
		t.Errorf("environment should win over YAML, got %q", config.DefaultProject)
	}
}

func TestLoadConfig_MissingConfigFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	setRequiredEnv(t)

	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("transport: [not a mapping"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(configFile); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_TransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport TransportConfig
		wantErr   bool
	}{
		{"stdio ok", TransportConfig{Type: "stdio"}, false},
		{"http ok", TransportConfig{Type: "http", HTTP: HTTPConfig{Host: "localhost", Port: 8080}}, false},
		{"unknown type", TransportConfig{Type: "grpc"}, true},
		{"http missing host", TransportConfig{Type: "http", HTTP: HTTPConfig{Port: 8080}}, true},
		{"http bad port", TransportConfig{Type: "http", HTTP: HTTPConfig{Host: "localhost", Port: 70000}}, true},
		{"http zero port", TransportConfig{Type: "http", HTTP: HTTPConfig{Host: "localhost"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				PAT:             "pat",
				OrganizationURL: "https://dev.azure.com/testorg",
				Transport:       tt.transport,
			}

			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	config := &Config{
		Transport: TransportConfig{Type: "bogus"},
	}

	err := config.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	// All three failures are reported at once.
	for _, fragment := range []string{EnvPAT, EnvOrganizationURL, "transport"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error should mention %q: %v", fragment, err)
		}
	}
}
