package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tenantgate/internal/cache"
	"github.com/dropDatabas3/tenantgate/internal/config"
	adminctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/tenantgate/internal/http/controllers/health"
	"github.com/dropDatabas3/tenantgate/internal/http/router"
	"github.com/dropDatabas3/tenantgate/internal/http/server"
	svc "github.com/dropDatabas3/tenantgate/internal/http/services/auth"
	"github.com/dropDatabas3/tenantgate/internal/metrics"
	"github.com/dropDatabas3/tenantgate/internal/observability/logger"
	"github.com/dropDatabas3/tenantgate/internal/rate"
	tokens "github.com/dropDatabas3/tenantgate/internal/security/token"
	"github.com/dropDatabas3/tenantgate/internal/store"
	"github.com/dropDatabas3/tenantgate/internal/store/adapters/pg"
	"github.com/dropDatabas3/tenantgate/internal/tenantdir"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "tenantgate",
	})
	defer logger.Sync()
	log := logger.With(logger.Component("serve"))

	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: pg.PoolConfig{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		},
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	// Redis se comparte entre cache y rate limiting cuando ambos lo piden.
	var redisClient *rdb.Client
	needsRedis := strings.EqualFold(cfg.Cache.Kind, "redis") ||
		(cfg.Rate.Enabled && strings.EqualFold(cfg.Rate.Backend, "redis"))
	if needsRedis {
		redisClient = rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		defer redisClient.Close()
	}

	var cacheClient cache.Client
	var cacheCheck func(context.Context) error
	if strings.EqualFold(cfg.Cache.Kind, "redis") {
		// Comparte la conexión; la cierra el defer de redisClient.
		cacheClient = cache.NewRedis(redisClient, cfg.Cache.Redis.Prefix)
		cacheCheck = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		mem := cache.NewMemory("tenantdir", cfg.MemoryCacheTTL())
		defer mem.Close()
		cacheClient = mem
	}

	dir := tenantdir.New(st.Tenants(), cacheClient, cfg.TenantDirCacheTTL())

	codec, err := tokens.New(tokens.Config{
		Issuer:     cfg.JWT.Issuer,
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.AccessTokenTTL(),
		RefreshTTL: cfg.RefreshTokenTTL(),
		DevMode:    cfg.Security.DevMode,
	})
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	if codec.WeakSecret() {
		log.Warn("JWT secret por debajo del mínimo, padded con ceros (solo dev_mode)")
	}

	services := svc.NewServices(svc.Deps{Store: st, Tenants: dir, Codec: codec})

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		keyCfgs := map[string]rate.KeyConfig{
			rate.KeyLogin: {
				Limit:          cfg.Rate.Login.Limit,
				Period:         cfg.Rate.Login.WindowDur(),
				AcquireTimeout: cfg.Rate.Login.AcquireTimeoutDur(),
			},
			rate.KeyRefresh: {
				Limit:          cfg.Rate.Refresh.Limit,
				Period:         cfg.Rate.Refresh.WindowDur(),
				AcquireTimeout: cfg.Rate.Refresh.AcquireTimeoutDur(),
			},
			rate.KeyAuthentication: {
				Limit:          cfg.Rate.Authentication.Limit,
				Period:         cfg.Rate.Authentication.WindowDur(),
				AcquireTimeout: cfg.Rate.Authentication.AcquireTimeoutDur(),
			},
		}
		if strings.EqualFold(cfg.Rate.Backend, "redis") {
			rlPrefix := "rl:"
			if p := cfg.Cache.Redis.Prefix; p != "" {
				rlPrefix = p + ":rl:"
			}
			limiter = rate.NewRedisLimiter(redisClient, rlPrefix, keyCfgs)
		} else {
			bucket := rate.NewBucketLimiter(keyCfgs)
			defer bucket.Close()
			limiter = bucket
		}
	}

	metricsHandler, err := metrics.Register(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Auth:           authctrl.NewControllers(services),
		Tenants:        adminctrl.NewTenantsController(st),
		Health:         healthctrl.NewHealthController(healthctrl.Deps{Store: st, CacheCheck: cacheCheck}),
		Codec:          codec,
		Limiter:        limiter,
		Metrics:        metricsHandler,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
	}, handler)

	log.Info("tenantgate up",
		logger.String("addr", cfg.Server.Addr),
		logger.String("env", cfg.App.Env),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("rate_enabled", cfg.Rate.Enabled),
	)
	return srv.Run()
}
