package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración del gateway. Se carga desde YAML y se pisa con
// variables de entorno (el secreto JWT normalmente viene solo por env).
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver  string `yaml:"driver"`
		DSN     string `yaml:"dsn"`
		Timeout string `yaml:"timeout"` // timeout por operación de store (fail closed)

		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
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
		// Secret firma ambos tipos de token (HS256). Sin secreto el servicio
		// no arranca: operar sin integridad criptográfica no es una opción.
		Secret    string `yaml:"secret"`
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Session struct {
		Issuer       string `yaml:"issuer"`
		TokenTTL     string `yaml:"token_ttl"`
		StaleAfter   string `yaml:"stale_after"`   // inactividad antes de que el janitor desactive
		JanitorEvery string `yaml:"janitor_every"` // frecuencia del janitor
	} `yaml:"session"`

	Security struct {
		Fingerprint struct {
			UseIP             *bool `yaml:"use_ip"`
			UseUserAgent      *bool `yaml:"use_user_agent"`
			UseAcceptLanguage *bool `yaml:"use_accept_language"`
		} `yaml:"fingerprint"`
		// RevocationCacheTTL limita cuánto puede tardar una revocación en
		// propagarse a todos los workers.
		RevocationCacheTTL string `yaml:"revocation_cache_ttl"`
	} `yaml:"security"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y overrides por
// env, y valida. Un secreto JWT ausente es error fatal de configuración.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Storage.Timeout == "" {
		c.Storage.Timeout = "5s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "thedevkitchen-api-gateway"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "1h"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "session-security"
	}
	if c.Session.TokenTTL == "" {
		c.Session.TokenTTL = "24h"
	}
	if c.Session.StaleAfter == "" {
		c.Session.StaleAfter = "168h" // 7d
	}
	if c.Session.JanitorEvery == "" {
		c.Session.JanitorEvery = "1h"
	}
	if c.Security.RevocationCacheTTL == "" {
		c.Security.RevocationCacheTTL = "5s"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 10
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea valores críticos. El secreto se valida acá y no en el
// codec para que el servicio falle en el arranque, no en el primer request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret not configured (set JWT_SECRET or jwt.secret)")
	}
	for _, d := range []string{
		c.Storage.Timeout, c.JWT.AccessTTL, c.Session.TokenTTL,
		c.Session.StaleAfter, c.Session.JanitorEvery,
		c.Security.RevocationCacheTTL, c.Rate.Window,
		c.Cache.Memory.DefaultTTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return err
		}
	}
	return nil
}

// Duration parsea una duración ya validada por Load.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// FingerprintEnabled aplica el default (true) a los toggles no seteados.
func (c *Config) FingerprintEnabled() (ip, ua, lang bool) {
	val := func(p *bool) bool {
		if p == nil {
			return true
		}
		return *p
	}
	fp := c.Security.Fingerprint
	return val(fp.UseIP), val(fp.UseUserAgent), val(fp.UseAcceptLanguage)
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
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_TIMEOUT"); ok {
		c.Storage.Timeout = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

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

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	if v, ok := getEnvStr("SESSION_ISSUER"); ok {
		c.Session.Issuer = v
	}
	if v, ok := getEnvStr("SESSION_TOKEN_TTL"); ok {
		c.Session.TokenTTL = v
	}
	if v, ok := getEnvStr("SESSION_STALE_AFTER"); ok {
		c.Session.StaleAfter = v
	}
	if v, ok := getEnvStr("SESSION_JANITOR_EVERY"); ok {
		c.Session.JanitorEvery = v
	}

	if v, ok := getEnvBool("FINGERPRINT_USE_IP"); ok {
		c.Security.Fingerprint.UseIP = &v
	}
	if v, ok := getEnvBool("FINGERPRINT_USE_USER_AGENT"); ok {
		c.Security.Fingerprint.UseUserAgent = &v
	}
	if v, ok := getEnvBool("FINGERPRINT_USE_ACCEPT_LANGUAGE"); ok {
		c.Security.Fingerprint.UseAcceptLanguage = &v
	}
	if v, ok := getEnvStr("REVOCATION_CACHE_TTL"); ok {
		c.Security.RevocationCacheTTL = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}
