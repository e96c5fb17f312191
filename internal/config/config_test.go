package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	conf, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Server.Address != constants.DefaultServerAddress {
		t.Errorf("address = %q", conf.Server.Address)
	}
	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("output format = %q", conf.Output.Format)
	}
	if conf.Cache.Backend != CacheNone || conf.Cache.TTL != 15*time.Minute {
		t.Errorf("cache = %+v", conf.Cache)
	}
	if conf.Server.RateLimit.Burst != constants.DefaultBurst {
		t.Errorf("burst = %d", conf.Server.RateLimit.Burst)
	}
	if err := conf.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigurationFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeConfig(t, `logging:
  level: debug
  format: console
output:
  format: json
server:
  address: 127.0.0.1:9000
  maxRequestSize: 2M
  readTimeout: 5s
  rateLimit:
    requestsPerSecond: 2.5
    burst: 5
cache:
  backend: Memory
  ttl: 1m
storage:
  path: /var/lib/mortgage/tables.db
tables:
  path: tables.yaml
  watch: true
`)
	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("logging = %+v", conf.Logging)
	}
	if conf.Server.Address != "127.0.0.1:9000" || conf.Server.MaxRequestSize != "2M" {
		t.Errorf("server = %+v", conf.Server)
	}
	if conf.Server.ReadTimeout != 5*time.Second || conf.Server.WriteTimeout != 30*time.Second {
		t.Errorf("timeouts = %v / %v", conf.Server.ReadTimeout, conf.Server.WriteTimeout)
	}
	if conf.Server.RateLimit.RequestsPerSecond != 2.5 || conf.Server.RateLimit.Burst != 5 {
		t.Errorf("rate limit = %+v", conf.Server.RateLimit)
	}
	if conf.Cache.Backend != CacheMemory || conf.Cache.TTL != time.Minute {
		t.Errorf("cache = %+v", conf.Cache)
	}
	if conf.Storage.Path != "/var/lib/mortgage/tables.db" || conf.Tables.Path != "tables.yaml" || !conf.Tables.Watch {
		t.Errorf("storage/tables = %+v / %+v", conf.Storage, conf.Tables)
	}
}

func TestLoadConfigurationEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MORTGAGE_CACHE_BACKEND=redis\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MORTGAGE_SERVER_ADDRESS", ":9999")
	// godotenv sets variables for the process; make sure this one is
	// cleared after the test.
	t.Setenv("MORTGAGE_CACHE_BACKEND", "")
	if err := os.Unsetenv("MORTGAGE_CACHE_BACKEND"); err != nil {
		t.Fatal(err)
	}

	conf, err := LoadConfiguration(writeConfig(t, "server:\n  address: :8000\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Server.Address != ":9999" {
		t.Errorf("environment should override the file, got %q", conf.Server.Address)
	}
	if conf.Cache.Backend != CacheRedis {
		t.Errorf(".env value not applied, backend = %q", conf.Cache.Backend)
	}
}

func TestLoadConfigurationInvalidYAML(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := LoadConfiguration(writeConfig(t, "server: [unterminated")); err == nil {
		t.Fatal("expected an error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr string
	}{
		{"valid", func(*Configuration) {}, ""},
		{"log level", func(c *Configuration) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log format", func(c *Configuration) { c.Logging.Format = "xml" }, "logging.format"},
		{"output format", func(c *Configuration) { c.Output.Format = "csv" }, "output.format"},
		{"cache backend", func(c *Configuration) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis address", func(c *Configuration) {
			c.Cache.Backend = CacheRedis
			c.Cache.RedisAddress = ""
		}, "cache.redisAddress"},
		{"rate limit", func(c *Configuration) { c.Server.RateLimit.Burst = -1 }, "server.rateLimit"},
		{"watch without path", func(c *Configuration) { c.Tables.Watch = true }, "tables.watch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Configuration{
				Logging: LoggingConfig{Level: "info", Format: "json"},
				Output:  OutputConfig{Format: constants.OutputFormatJSON},
				Cache:   CacheConfig{Backend: CacheMemory, RedisAddress: "localhost:6379"},
			}
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
