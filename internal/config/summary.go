package config

import (
	"fmt"
	"strings"

	"github.com/dropDatabas3/hostboard/internal/util"
)

// Summary arma la config efectiva con los secretos enmascarados.
func (c *Config) Summary() string {
	var b strings.Builder
	line := func(k string, v any) { fmt.Fprintf(&b, "%-28s %v\n", k, v) }

	line("app.env", c.App.Env)
	line("app.version", c.App.Version)
	line("server.addr", c.Server.Addr)
	line("backend.driver", c.Backend.Driver)
	switch c.Backend.Driver {
	case "graph":
		line("backend.graph.endpoint", c.Backend.Graph.Endpoint)
		line("backend.graph.api_key", util.MaskSecret(c.Backend.Graph.APIKey))
		line("backend.graph.service_token", util.MaskSecret(c.Backend.Graph.ServiceToken))
	case "postgres":
		line("backend.postgres.primary_dsn", util.MaskDSN(c.Backend.Postgres.PrimaryDSN))
		line("backend.postgres.replica_dsn", util.MaskDSN(c.Backend.Postgres.ReplicaDSN))
		line("backend.postgres.migrate", c.Backend.Postgres.Migrate)
	}
	line("cache.driver", c.Cache.Driver)
	if c.Cache.Driver == "redis" {
		line("cache.addr", c.Cache.Addr)
	}
	line("auth.jwt_secret", util.MaskSecret(c.Auth.JWTSecret))
	line("auth.sign_in_url", c.Auth.SignInURL)
	line("listing.page_size", c.Listing.PageSize)
	line("search.debounce_delay", c.Search.DebounceDelay)
	line("negotiation.override", c.Negotiation.Override)
	line("negotiation.fallbacks", strings.Join(c.Negotiation.Fallbacks, ","))
	line("rate.create_limit", fmt.Sprintf("%d/%s enabled=%t", c.Rate.CreateLimit, c.Rate.Window, c.Rate.Enabled))
	return b.String()
}
