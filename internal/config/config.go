package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EndpointRate define el límite de un bucket por endpoint.
type EndpointRate struct {
	Limit          int    `yaml:"limit"`
	Window         string `yaml:"window"`
	AcquireTimeout string `yaml:"acquire_timeout"`
}

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Secret     string `yaml:"secret"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// redis usa ventana fija compartida entre instancias; memory usa
		// token bucket local.
		Backend string `yaml:"backend"` // memory | redis

		Login          EndpointRate `yaml:"login"`
		Refresh        EndpointRate `yaml:"refresh"`
		Authentication EndpointRate `yaml:"authentication"`
	} `yaml:"rate"`

	Security struct {
		// DevMode habilita salvaguardas relajadas (padding de secretos
		// cortos). NUNCA en prod.
		DevMode bool `yaml:"dev_mode"`
	} `yaml:"security"`

	TenantDir struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"tenantdir"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Guardia dura: dev_mode jamás queda activo en prod.
	if strings.EqualFold(c.App.Env, "prod") {
		c.Security.DevMode = false
	}

	return &c, nil
}

// Default construye una configuración usable sin YAML (tests, memory driver).
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

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
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "tenantgate"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h" // 7d
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	applyRateDefaults(&c.Rate.Login, 10, "1m", "500ms")
	applyRateDefaults(&c.Rate.Refresh, 30, "1m", "500ms")
	applyRateDefaults(&c.Rate.Authentication, 300, "1m", "250ms")
	if c.TenantDir.CacheTTL == "" {
		c.TenantDir.CacheTTL = "5m"
	}
}

func applyRateDefaults(e *EndpointRate, limit int, window, acquire string) {
	if e.Limit == 0 {
		e.Limit = limit
	}
	if e.Window == "" {
		e.Window = window
	}
	if e.AcquireTimeout == "" {
		e.AcquireTimeout = acquire
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
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
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

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("CACHE_MEMORY_DEFAULT_TTL"); ok {
		c.Cache.Memory.DefaultTTL = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}
	// Test-only overrides (CI/e2e): toman precedencia si están seteadas
	if v, ok := getEnvStr("TEST_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("TEST_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	overrideRateEnv("RATE_LOGIN", &c.Rate.Login)
	overrideRateEnv("RATE_REFRESH", &c.Rate.Refresh)
	overrideRateEnv("RATE_AUTHENTICATION", &c.Rate.Authentication)

	// SECURITY
	if v, ok := getEnvBool("SECURITY_DEV_MODE"); ok {
		c.Security.DevMode = v
	}

	// TENANTDIR
	if v, ok := getEnvStr("TENANTDIR_CACHE_TTL"); ok {
		c.TenantDir.CacheTTL = v
	}
}

func overrideRateEnv(prefix string, e *EndpointRate) {
	if v, ok := getEnvInt(prefix + "_LIMIT"); ok {
		e.Limit = v
	}
	if v, ok := getEnvStr(prefix + "_WINDOW"); ok {
		e.Window = v
	}
	if v, ok := getEnvStr(prefix + "_ACQUIRE_TIMEOUT"); ok {
		e.AcquireTimeout = v
	}
}

// Validate chequea valores críticos y que las duraciones declaradas parseen.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	switch c.Rate.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown rate backend %q", c.Rate.Backend)
	}

	durs := []struct{ name, val string }{
		{"storage.postgres.conn_max_lifetime", c.Storage.Postgres.ConnMaxLifetime},
		{"cache.memory.default_ttl", c.Cache.Memory.DefaultTTL},
		{"jwt.access_ttl", c.JWT.AccessTTL},
		{"jwt.refresh_ttl", c.JWT.RefreshTTL},
		{"rate.login.window", c.Rate.Login.Window},
		{"rate.login.acquire_timeout", c.Rate.Login.AcquireTimeout},
		{"rate.refresh.window", c.Rate.Refresh.Window},
		{"rate.refresh.acquire_timeout", c.Rate.Refresh.AcquireTimeout},
		{"rate.authentication.window", c.Rate.Authentication.Window},
		{"rate.authentication.acquire_timeout", c.Rate.Authentication.AcquireTimeout},
		{"tenantdir.cache_ttl", c.TenantDir.CacheTTL},
	}
	for _, d := range durs {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	return nil
}

// ---- Duraciones parseadas ----
// Validate() garantiza que parsean; estos helpers evitan repetir el parseo
// en cada punto de wiring.

func (c *Config) AccessTokenTTL() time.Duration  { return mustDur(c.JWT.AccessTTL, 15*time.Minute) }
func (c *Config) RefreshTokenTTL() time.Duration { return mustDur(c.JWT.RefreshTTL, 168*time.Hour) }
func (c *Config) TenantDirCacheTTL() time.Duration {
	return mustDur(c.TenantDir.CacheTTL, 5*time.Minute)
}

// MemoryCacheTTL retorna el TTL por defecto del cache en memoria.
func (c *Config) MemoryCacheTTL() time.Duration {
	return mustDur(c.Cache.Memory.DefaultTTL, 2*time.Minute)
}

// WindowDur retorna la ventana del bucket.
func (e EndpointRate) WindowDur() time.Duration { return mustDur(e.Window, time.Minute) }

// AcquireTimeoutDur retorna cuánto espera Acquire antes de rechazar.
func (e EndpointRate) AcquireTimeoutDur() time.Duration {
	return mustDur(e.AcquireTimeout, 500*time.Millisecond)
}

func mustDur(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
