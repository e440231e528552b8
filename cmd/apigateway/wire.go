package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/thedevkitchen/apigateway/internal/audit"
	"github.com/thedevkitchen/apigateway/internal/cache"
	"github.com/thedevkitchen/apigateway/internal/config"
	"github.com/thedevkitchen/apigateway/internal/fingerprint"
	"github.com/thedevkitchen/apigateway/internal/http/controllers"
	"github.com/thedevkitchen/apigateway/internal/http/middlewares"
	"github.com/thedevkitchen/apigateway/internal/http/router"
	"github.com/thedevkitchen/apigateway/internal/jwt"
	"github.com/thedevkitchen/apigateway/internal/oauth"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
	"github.com/thedevkitchen/apigateway/internal/rate"
	"github.com/thedevkitchen/apigateway/internal/session"
	"github.com/thedevkitchen/apigateway/internal/store/core"
	"github.com/thedevkitchen/apigateway/internal/store/memory"
	"github.com/thedevkitchen/apigateway/internal/store/pg"
)

// loadConfig carga y valida la configuración e inicializa el logger global.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "apigateway"})
	return cfg, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.Options{
			MaxConns:        cfg.Storage.Postgres.MaxOpenConns,
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openCache(cfg *config.Config) (cache.Client, error) {
	switch cfg.Cache.Kind {
	case "memory":
		return cache.NewMemory(config.Duration(cfg.Cache.Memory.DefaultTTL)), nil
	case "redis":
		return cache.NewRedis(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Cache.Kind)
	}
}

func buildCodec(cfg *config.Config) *jwt.Codec {
	return jwt.NewCodec(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.Session.Issuer,
		config.Duration(cfg.JWT.AccessTTL),
		config.Duration(cfg.Session.TokenTTL),
	)
}

func fingerprintSettings(cfg *config.Config) fingerprint.Settings {
	ip, ua, lang := cfg.FingerprintEnabled()
	return fingerprint.Settings{UseIP: ip, UseUserAgent: ua, UseAcceptLanguage: lang}
}

// buildHandler cablea servicios, middlewares y rutas sobre repo y cache ya
// abiertos. Devuelve también el manager de sesiones para el janitor.
func buildHandler(cfg *config.Config, repo core.Repository, c cache.Client) (http.Handler, *session.Manager) {
	// todo acceso al store corta por deadline: fail closed ante un backend
	// colgado, nunca un request esperando sin límite
	repo = core.WithTimeout(repo, config.Duration(cfg.Storage.Timeout))

	codec := buildCodec(cfg)
	rec := audit.NewRecorder(repo)

	grant := oauth.NewGrant(repo, codec, rec)
	sessions := session.NewManager(repo, codec, fingerprintSettings(cfg), rec)

	var limiter *rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.NewLimiter(c, cfg.Rate.MaxRequests, config.Duration(cfg.Rate.Window))
	}
	bearer := middlewares.NewBearer(repo, codec, c, config.Duration(cfg.Security.RevocationCacheTTL))

	h := router.New(router.Options{
		Controllers: controllers.New(grant, sessions, repo),
		Bearer:      bearer,
		Limiter:     limiter,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})
	return h, sessions
}
