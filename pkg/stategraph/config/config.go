package config

import (
	"time"
)

// Config wraps a map[string]any for type-safe value extraction. Every
// accessor takes a default and returns it when the key is absent or the
// stored value cannot be coerced to the requested type, so callers
// never branch on presence.
type Config struct {
	data map[string]any
}

// New creates a Config over data. A nil map yields an empty, usable
// Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

func (c Config) value(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// String returns the string under key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	s, ok := v.(string)
	if !ok {
		return defaultVal
	}
	return s
}

// Bool returns the bool under key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// Int returns the integer under key, or defaultVal. JSON decodes all
// numbers to float64, so floats convert when they carry no fractional
// part.
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	n, ok := asInt(v)
	if !ok {
		return defaultVal
	}
	return n
}

// Float returns the float64 under key, or defaultVal. Integer values
// convert.
func (c Config) Float(key string, defaultVal float64) float64 {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	f, ok := asFloat(v)
	if !ok {
		return defaultVal
	}
	return f
}

// Duration returns the duration under key, or defaultVal. Strings parse
// with time.ParseDuration ("90s", "1h30m"); bare numbers count seconds;
// a time.Duration passes through.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case time.Duration:
		return val
	default:
		if f, ok := asFloat(v); ok {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultVal
}

// StringSlice returns the string slice under key, or defaultVal. A
// []any converts only when every element is a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// Sub returns the nested section under key as a Config. Missing keys and
// non-map values yield an empty Config, so chained lookups never panic:
//
//	addr := cfg.Sub("checkpoint").Sub("redis").String("addr", "localhost:6379")
func (c Config) Sub(key string) Config {
	v, ok := c.value(key)
	if !ok {
		return New(nil)
	}
	switch m := v.(type) {
	case map[string]any:
		return New(m)
	case Config:
		return m
	}
	return New(nil)
}

// Any returns the raw value under key, or defaultVal.
func (c Config) Any(key string, defaultVal any) any {
	v, ok := c.value(key)
	if !ok {
		return defaultVal
	}
	return v
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.value(key)
	return ok
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
