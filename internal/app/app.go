package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/chatport/wagateway-extras/internal/config"
	"github.com/chatport/wagateway-extras/internal/db"
	"github.com/chatport/wagateway-extras/internal/health"
	"github.com/chatport/wagateway-extras/internal/instance"
	"github.com/chatport/wagateway-extras/internal/ratelimit"
	"github.com/chatport/wagateway-extras/internal/version"
)

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 5 * time.Second

// ErrMissingDatabaseDSN indicates no database DSN is present in config or env.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database.dsn` in config file or DB_CONNECTION)")

// Deps are the collaborators the customization layer plugs into the
// host router. The registry may be nil when the host does not share
// its connection table.
type Deps struct {
	DB        *gorm.DB
	Cache     *redis.Client
	Registry  *instance.Registry
	RateLimit ratelimit.Config
	RateStore ratelimit.Store
}

// Attach installs the rate limit middleware and health routes on an
// existing gin engine without touching the host's own routes.
func Attach(engine *gin.Engine, deps Deps) {
	if engine == nil {
		return
	}
	engine.Use(ratelimit.Middleware(deps.RateStore, deps.RateLimit))
	health.RegisterRoutes(engine, health.DefaultPathPrefix, health.NewProber(deps.DB, deps.Cache, deps.Registry))
}

// RunServer boots a standalone server carrying the customization layer.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	hostCfg, errLoad := config.LoadHostConfig(configPath)
	if errLoad != nil {
		return errLoad
	}
	if hostCfg.DSN() == "" {
		return ErrMissingDatabaseDSN
	}

	conn, errOpen := db.Open(hostCfg.DSN())
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	cache := dialRedis(ctx, hostCfg.Redis)

	settings, errSettings := ratelimit.LoadSettings()
	if errSettings != nil {
		return errSettings
	}
	rlCfg := settings.Config()

	var store ratelimit.Store
	if cache != nil {
		store = ratelimit.NewRedisStore(cache, hostCfg.Redis.Prefix)
	} else {
		store = ratelimit.NewMemoryStore()
		if rlCfg.Enabled {
			log.Warn("rate limit: no redis configured, falling back to per-process limits")
		}
	}

	engine := buildEngine(Deps{
		DB:        conn,
		Cache:     cache,
		Registry:  instance.NewRegistry(),
		RateLimit: rlCfg,
		RateStore: store,
	})

	port := hostCfg.Port
	if port <= 0 {
		port = defaultPort
	}
	if port <= 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.WithField("port", port).Infof("gateway extras %s listening", version.String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildEngine assembles the gin engine with the layer attached.
func buildEngine(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	Attach(engine, deps)
	return engine
}

// dialRedis builds the shared Redis client, or nil when unconfigured.
// A failed ping is logged but the client is kept: the limiter fails
// open and the health probes report the outage.
func dialRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		log.WithError(errPing).Warn("redis unreachable at startup")
	}
	return client
}
