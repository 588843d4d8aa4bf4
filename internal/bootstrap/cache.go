package bootstrap

import (
	"github.com/GoSim-25-26J-441/timetrack-backend/config"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

// CacheConfig maps the env/YAML cache settings onto respcache.Config.
// Lists left empty keep the package defaults.
func CacheConfig(c config.CacheConfig) respcache.Config {
	out := respcache.DefaultConfig()
	out.Enabled = c.Enabled
	if c.Prefix != "" {
		out.Prefix = c.Prefix
	}
	if c.DefaultTTL > 0 {
		out.DefaultTTL = c.DefaultTTL
	}
	if c.MaxAge > 0 {
		out.MaxAge = c.MaxAge
	}
	if len(c.LongRoutes) > 0 {
		out.LongRoutes = routeTTLs(c.LongRoutes)
	}
	if len(c.ShortRoutes) > 0 {
		out.ShortRoutes = routeTTLs(c.ShortRoutes)
	}
	if len(c.Excluded) > 0 {
		out.Excluded = c.Excluded
	}
	return out
}

func routeTTLs(in []config.RouteTTL) []respcache.Route {
	out := make([]respcache.Route, len(in))
	for i, r := range in {
		out[i] = respcache.Route{Prefix: r.Prefix, TTL: r.TTL}
	}
	return out
}
