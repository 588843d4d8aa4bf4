package respcache

import (
	"strings"
	"time"
)

// Route assigns a TTL to every path starting with Prefix.
type Route struct {
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Config controls what is cached and for how long. Paths are compared
// without their leading slash, e.g. "api/v1/projects".
type Config struct {
	Enabled     bool
	Prefix      string
	DefaultTTL  time.Duration
	MaxAge      time.Duration
	LongRoutes  []Route
	ShortRoutes []Route
	Excluded    []string
	Methods     []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Prefix:     "api:",
		DefaultTTL: 15 * time.Minute,
		MaxAge:     3 * 24 * time.Hour,
		LongRoutes: []Route{
			{Prefix: "api/v1/attributes", TTL: 60 * time.Minute},
		},
		ShortRoutes: []Route{
			{Prefix: "api/v1/timesheets", TTL: 5 * time.Minute},
		},
		Excluded: []string{
			"api/v1/auth",
			"api/v1/login",
			"api/v1/register",
			"api/v1/password",
			"api/v1/logout",
			"api/v1/cache",
		},
		Methods: []string{"GET"},
	}
}

// TTLFor checks the long routes, then the short routes, then falls back
// to DefaultTTL.
func (c Config) TTLFor(path string) time.Duration {
	p := trimPath(path)
	for _, r := range c.LongRoutes {
		if matches(p, r.Prefix) {
			return r.TTL
		}
	}
	for _, r := range c.ShortRoutes {
		if matches(p, r.Prefix) {
			return r.TTL
		}
	}
	return c.DefaultTTL
}

func (c Config) Excludes(path string) bool {
	p := trimPath(path)
	for _, e := range c.Excluded {
		if matches(p, e) {
			return true
		}
	}
	return false
}

func (c Config) Cacheable(method string) bool {
	for _, m := range c.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func matches(path, prefix string) bool {
	prefix = trimPath(prefix)
	return prefix != "" && strings.HasPrefix(path, prefix)
}

func trimPath(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "/")
}
