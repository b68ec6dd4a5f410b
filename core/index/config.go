package index

import (
	"fmt"
	"os"
	"strconv"

	"github.com/balzaczyy/gotis/core/store"
	"gopkg.in/yaml.v3"
)

// Default value is 128.
const DEFAULT_TERM_INDEX_INTERVAL = 128

// Default value is 1. -1 skips loading the terms index.
const DEFAULT_TERMS_INDEX_DIVISOR = 1

// Default value is 16.
const DEFAULT_SKIP_INTERVAL = 16

// Default value is 10.
const DEFAULT_MAX_SKIP_LEVELS = 10

// Default value is 1024 terms.
const DEFAULT_TERM_CACHE_SIZE = 1024

/*
Default value is 1: a term found by scanning forward from the cursor is
cached only when more than one entry was passed on the way. Range
scans touching each term once then leave the cache alone.
*/
const DEFAULT_MIN_SCANS_TO_CACHE = 1

// Default value is 0.01.
const DEFAULT_BLOOM_FALSE_POSITIVE_RATE = 0.01

/*
Config holds the settings used to write and read term dictionaries and
postings. Zero values are not defaults; start from NewConfig() or
LoadConfig().
*/
type Config struct {
	// Read buffer size of every opened input.
	ReadBufferSize int `yaml:"readBufferSize"`
	// Load every IndexDivisor-th entry of the terms index, or none at
	// all with -1.
	IndexDivisor    int `yaml:"indexDivisor"`
	TermCacheSize   int `yaml:"termCacheSize"`
	MinScansToCache int `yaml:"minScansToCache"`
	// Number of top skip levels copied into memory on first skip.
	SkipLevelsToBuffer int  `yaml:"skipLevelsToBuffer"`
	UseBloomFilter     bool `yaml:"useBloomFilter"`

	IndexInterval int `yaml:"indexInterval"`
	SkipInterval  int `yaml:"skipInterval"`
	MaxSkipLevels int `yaml:"maxSkipLevels"`
	// A term bloom filter is written when this rate is positive.
	BloomFalsePositiveRate float64 `yaml:"bloomFalsePositiveRate"`
}

func NewConfig() Config {
	return Config{
		ReadBufferSize:         store.BUFFER_SIZE,
		IndexDivisor:           DEFAULT_TERMS_INDEX_DIVISOR,
		TermCacheSize:          DEFAULT_TERM_CACHE_SIZE,
		MinScansToCache:        DEFAULT_MIN_SCANS_TO_CACHE,
		SkipLevelsToBuffer:     1,
		UseBloomFilter:         true,
		IndexInterval:          DEFAULT_TERM_INDEX_INTERVAL,
		SkipInterval:           DEFAULT_SKIP_INTERVAL,
		MaxSkipLevels:          DEFAULT_MAX_SKIP_LEVELS,
		BloomFalsePositiveRate: DEFAULT_BLOOM_FALSE_POSITIVE_RATE,
	}
}

/*
LoadConfig reads a YAML config file, if path is not empty, over the
defaults and then applies GOTIS_* environment overrides.
*/
func LoadConfig(path string) (Config, error) {
	conf := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return conf, fmt.Errorf("reading config file %v: %w", path, err)
		}
		if err = yaml.Unmarshal(data, &conf); err != nil {
			return conf, fmt.Errorf("parsing config file %v: %w", path, err)
		}
	}
	if err := conf.applyEnvOverrides(); err != nil {
		return conf, err
	}
	return conf, conf.Validate()
}

func (c *Config) applyEnvOverrides() error {
	ints := []struct {
		name  string
		field *int
	}{
		{"GOTIS_READ_BUFFER_SIZE", &c.ReadBufferSize},
		{"GOTIS_INDEX_DIVISOR", &c.IndexDivisor},
		{"GOTIS_TERM_CACHE_SIZE", &c.TermCacheSize},
		{"GOTIS_MIN_SCANS_TO_CACHE", &c.MinScansToCache},
		{"GOTIS_SKIP_LEVELS_TO_BUFFER", &c.SkipLevelsToBuffer},
		{"GOTIS_INDEX_INTERVAL", &c.IndexInterval},
		{"GOTIS_SKIP_INTERVAL", &c.SkipInterval},
		{"GOTIS_MAX_SKIP_LEVELS", &c.MaxSkipLevels},
	}
	for _, v := range ints {
		if s := os.Getenv(v.name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid %v=%q: %w", v.name, s, err)
			}
			*v.field = n
		}
	}
	if s := os.Getenv("GOTIS_USE_BLOOM_FILTER"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid GOTIS_USE_BLOOM_FILTER=%q: %w", s, err)
		}
		c.UseBloomFilter = b
	}
	if s := os.Getenv("GOTIS_BLOOM_FALSE_POSITIVE_RATE"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid GOTIS_BLOOM_FALSE_POSITIVE_RATE=%q: %w", s, err)
		}
		c.BloomFalsePositiveRate = f
	}
	return nil
}

// Validate reports the first setting out of its range.
func (c Config) Validate() error {
	switch {
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("readBufferSize must be positive (got %v)", c.ReadBufferSize)
	case c.IndexDivisor < 1 && c.IndexDivisor != -1:
		return fmt.Errorf("indexDivisor must be -1 (don't load terms index) or greater than 0 (got %v)", c.IndexDivisor)
	case c.TermCacheSize <= 0:
		return fmt.Errorf("termCacheSize must be positive (got %v)", c.TermCacheSize)
	case c.MinScansToCache < 0:
		return fmt.Errorf("minScansToCache must not be negative (got %v)", c.MinScansToCache)
	case c.SkipLevelsToBuffer < 0:
		return fmt.Errorf("skipLevelsToBuffer must not be negative (got %v)", c.SkipLevelsToBuffer)
	case c.IndexInterval <= 0:
		return fmt.Errorf("indexInterval must be positive (got %v)", c.IndexInterval)
	case c.SkipInterval < 2:
		return fmt.Errorf("skipInterval must be at least 2 (got %v)", c.SkipInterval)
	case c.MaxSkipLevels <= 0:
		return fmt.Errorf("maxSkipLevels must be positive (got %v)", c.MaxSkipLevels)
	case c.BloomFalsePositiveRate < 0 || c.BloomFalsePositiveRate >= 1:
		return fmt.Errorf("bloomFalsePositiveRate must be in [0,1) (got %v)", c.BloomFalsePositiveRate)
	}
	return nil
}
