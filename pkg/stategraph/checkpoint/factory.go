package checkpoint

import (
	"fmt"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/config"
)

// FromConfig builds a Store from a configuration section. The section
// selects a backend and carries backend-specific settings:
//
//	checkpoint:
//	  backend: sqlite        # memory | sqlite | redis
//	  sqlite:
//	    path: ./threads.db
//	  redis:
//	    addr: localhost:6379
//	    prefix: stategraph
//	    ttl: 720h
//
// Unset keys fall back to each backend's defaults; an unknown backend is
// an error.
func FromConfig(cfg config.Config) (Store, error) {
	backend := cfg.String("backend", "memory")
	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := cfg.Sub("sqlite").String("path", "./stategraph.db")
		return NewSQLiteStore(path)
	case "redis":
		rc := cfg.Sub("redis")
		opts := []RedisOption{
			WithPrefix(rc.String("prefix", "stategraph")),
			WithTTL(rc.Duration("ttl", 0)),
			WithDB(rc.Int("db", 0)),
		}
		if password := rc.String("password", ""); password != "" {
			opts = append(opts, WithPassword(password))
		}
		return NewRedisStore(rc.String("addr", "localhost:6379"), opts...)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", backend)
	}
}
