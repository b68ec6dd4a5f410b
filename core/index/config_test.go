package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	conf := NewConfig()
	assertEquals(t, conf.Validate(), nil)
	assertEquals(t, conf.IndexInterval, DEFAULT_TERM_INDEX_INTERVAL)
	assertEquals(t, conf.IndexDivisor, DEFAULT_TERMS_INDEX_DIVISOR)
	assertEquals(t, conf.MinScansToCache, DEFAULT_MIN_SCANS_TO_CACHE)
	assertEquals(t, conf.UseBloomFilter, true)
}

func TestConfigValidate(t *testing.T) {
	for _, c := range []struct {
		name   string
		modify func(*Config)
		field  string // empty when valid
	}{
		{"divisor -1", func(c *Config) { c.IndexDivisor = -1 }, ""},
		{"divisor 3", func(c *Config) { c.IndexDivisor = 3 }, ""},
		{"divisor 0", func(c *Config) { c.IndexDivisor = 0 }, "indexDivisor"},
		{"divisor -2", func(c *Config) { c.IndexDivisor = -2 }, "indexDivisor"},
		{"buffer", func(c *Config) { c.ReadBufferSize = 0 }, "readBufferSize"},
		{"cache", func(c *Config) { c.TermCacheSize = 0 }, "termCacheSize"},
		{"scans", func(c *Config) { c.MinScansToCache = -1 }, "minScansToCache"},
		{"skip buffer", func(c *Config) { c.SkipLevelsToBuffer = -1 }, "skipLevelsToBuffer"},
		{"index interval", func(c *Config) { c.IndexInterval = 0 }, "indexInterval"},
		{"skip interval", func(c *Config) { c.SkipInterval = 1 }, "skipInterval"},
		{"skip levels", func(c *Config) { c.MaxSkipLevels = 0 }, "maxSkipLevels"},
		{"bloom rate", func(c *Config) { c.BloomFalsePositiveRate = 1 }, "bloomFalsePositiveRate"},
		{"no bloom", func(c *Config) { c.BloomFalsePositiveRate = 0 }, ""},
	} {
		conf := NewConfig()
		c.modify(&conf)
		err := conf.Validate()
		if c.field == "" {
			if err != nil {
				t.Errorf("%v: unexpected error %v", c.name, err)
			}
		} else if err == nil || !strings.Contains(err.Error(), c.field) {
			t.Errorf("%v: expected error on %v, got %v", c.name, c.field, err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotis.yaml")
	data := `
indexDivisor: 2
termCacheSize: 256
useBloomFilter: false
indexInterval: 64
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOTIS_TERM_CACHE_SIZE", "512")
	t.Setenv("GOTIS_SKIP_LEVELS_TO_BUFFER", "3")

	conf, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	assertEquals(t, conf.IndexDivisor, 2)
	// environment wins over the file
	assertEquals(t, conf.TermCacheSize, 512)
	assertEquals(t, conf.SkipLevelsToBuffer, 3)
	assertEquals(t, conf.UseBloomFilter, false)
	assertEquals(t, conf.IndexInterval, 64)
	// untouched settings keep their defaults
	assertEquals(t, conf.SkipInterval, DEFAULT_SKIP_INTERVAL)
	assertEquals(t, conf.MaxSkipLevels, DEFAULT_MAX_SKIP_LEVELS)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("missing config file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err = os.WriteFile(path, []byte("indexDivisor: [1, 2]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadConfig(path); err == nil {
		t.Error("malformed config file should fail")
	}

	t.Setenv("GOTIS_INDEX_DIVISOR", "many")
	if _, err = LoadConfig(""); err == nil || !strings.Contains(err.Error(), "GOTIS_INDEX_DIVISOR") {
		t.Errorf("expected invalid GOTIS_INDEX_DIVISOR, got %v", err)
	}

	t.Setenv("GOTIS_INDEX_DIVISOR", "0")
	if _, err = LoadConfig(""); err == nil || !strings.Contains(err.Error(), "indexDivisor") {
		t.Errorf("expected out of range indexDivisor, got %v", err)
	}

	t.Setenv("GOTIS_INDEX_DIVISOR", "-1")
	t.Setenv("GOTIS_USE_BLOOM_FILTER", "maybe")
	if _, err = LoadConfig(""); err == nil || !strings.Contains(err.Error(), "GOTIS_USE_BLOOM_FILTER") {
		t.Errorf("expected invalid GOTIS_USE_BLOOM_FILTER, got %v", err)
	}
}
