package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Source: SourceConfig{Path: "points.kml"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Export.Driver != DriverMemory {
		t.Errorf("driver = %q", cfg.Export.Driver)
	}
	if cfg.Export.TTLSec != 900 {
		t.Errorf("ttl = %d", cfg.Export.TTLSec)
	}
	if cfg.Attributes.StreetOrIntersection != "STREET/INTERSECTION" {
		t.Errorf("street key = %q", cfg.Attributes.StreetOrIntersection)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no source", func(c *Config) { c.Source.Path = "" }, "source.path"},
		{"unknown driver", func(c *Config) { c.Export.Driver = "s3" }, "export.driver"},
		{"redis without addrs", func(c *Config) { c.Export.Driver = DriverRedis }, "database.addrs"},
		{"duplicate keys", func(c *Config) { c.Attributes.Status = c.Attributes.Client }, "attributes"},
		{"negative max", func(c *Config) { c.Export.MaxStored = -1 }, "max_stored"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_RedisWithAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Export.Driver = DriverRedis
	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("KMLFILTER_TEST_SET", "value")

	tests := []struct {
		in, want string
	}{
		{"${KMLFILTER_TEST_SET}", "value"},
		{"${KMLFILTER_TEST_SET:-fallback}", "value"},
		{"${KMLFILTER_TEST_UNSET:-fallback}", "fallback"},
		{"${KMLFILTER_TEST_UNSET}", ""},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("KMLFILTER_TEST_PORT", "9090")
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	yaml := `
http:
  port: ${KMLFILTER_TEST_PORT}
source:
  path: /data/points.kml
attributes:
  client: CLIENTE
  status: SITUAÇÃO
  district: BAIRRO
  reference: REFERENCIA
  street_or_intersection: RUA/CRUZAMENTO
export:
  ttl_sec: 60
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Attributes.Status != "SITUAÇÃO" {
		t.Errorf("status key = %q", cfg.Attributes.Status)
	}
	if cfg.Export.TTL().Seconds() != 60 {
		t.Errorf("ttl = %v", cfg.Export.TTL())
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Export.Driver != DriverMemory {
		t.Errorf("driver = %q", cfg.Export.Driver)
	}
}
