package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML).
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		Version  string `yaml:"version"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr              string        `yaml:"addr"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Backend struct {
		// graph | postgres
		Driver string `yaml:"driver"`
		Graph  struct {
			Endpoint     string        `yaml:"endpoint"`
			APIKey       string        `yaml:"api_key"`
			ServiceToken string        `yaml:"service_token"`
			Timeout      time.Duration `yaml:"timeout"`
		} `yaml:"graph"`
		Postgres struct {
			PrimaryDSN string            `yaml:"primary_dsn"`
			ReplicaDSN string            `yaml:"replica_dsn"`
			MaxConns   int               `yaml:"max_conns"`
			Tables     map[string]string `yaml:"tables"`
			Migrate    bool              `yaml:"migrate"`
		} `yaml:"postgres"`
	} `yaml:"backend"`

	Cache struct {
		// memory | redis
		Driver   string `yaml:"driver"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"cache"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		SignInURL string `yaml:"sign_in_url"`
	} `yaml:"auth"`

	Listing struct {
		PageSize int           `yaml:"page_size"`
		MaxLimit int           `yaml:"max_limit"`
		SeedTTL  time.Duration `yaml:"seed_ttl"`
	} `yaml:"listing"`

	Search struct {
		DebounceDelay time.Duration `yaml:"debounce_delay"`
	} `yaml:"search"`

	Scroll struct {
		Margin int `yaml:"margin"`
	} `yaml:"scroll"`

	Negotiation struct {
		// Override "operation:field", se prueba primero.
		Override  string   `yaml:"override"`
		Fallbacks []string `yaml:"fallbacks"`
	} `yaml:"negotiation"`

	Slug struct {
		MaxProbes int `yaml:"max_probes"`
	} `yaml:"slug"`

	Drafts struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"drafts"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		CreateLimit int           `yaml:"create_limit"`
		Window      time.Duration `yaml:"window"`
	} `yaml:"rate"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y variables de
// entorno, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else {
		// Sin archivo el rate limit queda activo por defecto.
		c.Rate.Enabled = true
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = "graph"
	}
	if c.Backend.Graph.Timeout == 0 {
		c.Backend.Graph.Timeout = 10 * time.Second
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "hostboard:"
	}
	if c.Listing.PageSize == 0 {
		c.Listing.PageSize = 40
	}
	if c.Listing.MaxLimit == 0 {
		c.Listing.MaxLimit = 100
	}
	if c.Listing.SeedTTL == 0 {
		c.Listing.SeedTTL = 30 * time.Second
	}
	if c.Search.DebounceDelay == 0 {
		c.Search.DebounceDelay = 300 * time.Millisecond
	}
	if c.Scroll.Margin == 0 {
		c.Scroll.Margin = 200
	}
	if c.Slug.MaxProbes == 0 {
		c.Slug.MaxProbes = 5
	}
	if c.Drafts.TTL == 0 {
		c.Drafts.TTL = 30 * 24 * time.Hour
	}
	if c.Rate.CreateLimit == 0 {
		c.Rate.CreateLimit = 10
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}

	// BACKEND
	if v, ok := getEnvStr("BACKEND_DRIVER"); ok {
		c.Backend.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("GRAPH_ENDPOINT"); ok {
		c.Backend.Graph.Endpoint = v
	}
	if v, ok := getEnvStr("GRAPH_API_KEY"); ok {
		c.Backend.Graph.APIKey = v
	}
	if v, ok := getEnvStr("GRAPH_SERVICE_TOKEN"); ok {
		c.Backend.Graph.ServiceToken = v
	}
	if v, ok := getEnvDur("GRAPH_TIMEOUT"); ok {
		c.Backend.Graph.Timeout = v
	}
	if v, ok := getEnvStr("PG_PRIMARY_DSN"); ok {
		c.Backend.Postgres.PrimaryDSN = v
	}
	if v, ok := getEnvStr("PG_REPLICA_DSN"); ok {
		c.Backend.Postgres.ReplicaDSN = v
	}
	if v, ok := getEnvInt("PG_MAX_CONNS"); ok {
		c.Backend.Postgres.MaxConns = v
	}
	if v, ok := getEnvBool("PG_MIGRATE"); ok {
		c.Backend.Postgres.Migrate = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.DB = v
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getEnvStr("AUTH_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvStr("AUTH_SIGN_IN_URL"); ok {
		c.Auth.SignInURL = v
	}

	// LISTING / SEARCH / SCROLL
	if v, ok := getEnvInt("LISTING_PAGE_SIZE"); ok {
		c.Listing.PageSize = v
	}
	if v, ok := getEnvInt("LISTING_MAX_LIMIT"); ok {
		c.Listing.MaxLimit = v
	}
	if v, ok := getEnvDur("LISTING_SEED_TTL"); ok {
		c.Listing.SeedTTL = v
	}
	if v, ok := getEnvDur("SEARCH_DEBOUNCE"); ok {
		c.Search.DebounceDelay = v
	}
	if v, ok := getEnvInt("SCROLL_MARGIN"); ok {
		c.Scroll.Margin = v
	}

	// NEGOTIATION
	if v, ok := getEnvStr("NEGOTIATION_OVERRIDE"); ok {
		c.Negotiation.Override = v
	}
	if v, ok := getEnvCSV("NEGOTIATION_FALLBACKS"); ok {
		c.Negotiation.Fallbacks = v
	}

	// SLUG / DRAFTS
	if v, ok := getEnvInt("SLUG_MAX_PROBES"); ok {
		c.Slug.MaxProbes = v
	}
	if v, ok := getEnvDur("DRAFTS_TTL"); ok {
		c.Drafts.TTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_CREATE_LIMIT"); ok {
		c.Rate.CreateLimit = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
}

// Validate revisa los valores críticos. Devuelve todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend.Driver {
	case "graph":
		if c.Backend.Graph.Endpoint == "" {
			errs = append(errs, errors.New("backend.graph.endpoint is required"))
		}
		if c.Backend.Graph.APIKey == "" && c.Backend.Graph.ServiceToken == "" {
			errs = append(errs, errors.New("backend.graph: api_key or service_token is required"))
		}
	case "postgres":
		if c.Backend.Postgres.PrimaryDSN == "" {
			errs = append(errs, errors.New("backend.postgres.primary_dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.driver %q not supported (graph|postgres)", c.Backend.Driver))
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Addr == "" {
			errs = append(errs, errors.New("cache.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q not supported (memory|redis)", c.Cache.Driver))
	}

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 bytes"))
	}
	if c.Listing.PageSize < 1 || c.Listing.PageSize > c.Listing.MaxLimit {
		errs = append(errs, fmt.Errorf("listing.page_size must be in [1, %d]", c.Listing.MaxLimit))
	}
	if c.Negotiation.Override != "" && !strings.Contains(c.Negotiation.Override, ":") {
		errs = append(errs, errors.New(`negotiation.override must be "operation:field"`))
	}
	if c.Rate.Enabled && c.Rate.CreateLimit < 1 {
		errs = append(errs, errors.New("rate.create_limit must be positive"))
	}

	return errors.Join(errs...)
}
