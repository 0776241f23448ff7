/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
This is useful for extracting values from YAML/JSON structures without
verbose type assertions and nil checks, and it backs the checkpoint store
factory.

# Basic Usage

Create a Config from any map and extract values with defaults:

	cfg := config.New(map[string]any{
	    "model":       "sonnet",
	    "max_turns":   10,
	    "tracing":     true,
	    "cli_timeout": "2m",
	})

	model := cfg.String("model", "sonnet")                  // "sonnet"
	turns := cfg.Int("max_turns", 6)                        // 10
	tracing := cfg.Bool("tracing", false)                   // true
	timeout := cfg.Duration("cli_timeout", 5*time.Minute)   // 2m

# Nested Sections

Sub descends into nested mappings and always returns a usable Config, so
chained lookups read cleanly:

	redis := cfg.Sub("checkpoint").Sub("redis")
	addr := redis.String("addr", "localhost:6379")

# Type Coercion

Duration handles multiple input types:
  - string: parsed with time.ParseDuration ("30s", "1h30m")
  - int/float64: interpreted as seconds
  - time.Duration: used directly

Numeric types handle reasonable conversions:
  - int from float64 (only without a fractional part)
  - float64 from int

All methods return the default value if:
  - The key is missing
  - The value cannot be converted to the requested type
  - The conversion would lose precision (e.g., float to int with fraction)

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("stategraph.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
