package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/cache"
	"github.com/iliyamo/watch-party/internal/config"
	"github.com/iliyamo/watch-party/internal/database"
	"github.com/iliyamo/watch-party/internal/handler"
	"github.com/iliyamo/watch-party/internal/logging"
	"github.com/iliyamo/watch-party/internal/middleware"
	"github.com/iliyamo/watch-party/internal/queue"
	"github.com/iliyamo/watch-party/internal/repository"
	"github.com/iliyamo/watch-party/internal/repository/memory"
	"github.com/iliyamo/watch-party/internal/router"
	"github.com/iliyamo/watch-party/internal/service"
	"github.com/iliyamo/watch-party/internal/tmdb"
)

// repositories groups the store implementations selected by STORE_DRIVER.
type repositories struct {
	parties       repository.WatchPartyRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	keys          repository.ParticipantKeyRepository
	buckets       repository.BucketRepository
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Config{Level: "info", Format: os.Getenv("LOG_FORMAT")})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Log)
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, authenticated routes will answer 503")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, db := openStore(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}

	rdb := connectRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}
	c := cache.New(cacheStore(ctx, cfg, rdb, log), cfg.Cache.Prefix, cfg.Cache.TTL, log)

	if cfg.TMDB.APIKey == "" {
		log.Warn().Msg("TMDB_API_KEY is empty, movie lookups will fail")
	}
	movies := tmdb.NewCached(tmdb.NewClient(tmdb.Config{
		BaseURL: cfg.TMDB.BaseURL,
		APIKey:  cfg.TMDB.APIKey,
		Timeout: cfg.TMDB.Timeout,
	}, log), c)

	notifier := service.NewNotificationService(repos.notifications, log)
	if cfg.Queue.PublishEnabled {
		notifier.SetPublisher(queue.NewPublisher(cfg.Queue.URL, cfg.Queue.DialTimeout, log))
	}
	if cfg.Queue.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.LogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}

	sessions := service.NewWatchPartyService(repos.parties, movies, notifier, c, log)
	messages := service.NewMessageService(repos.messages, log)
	keys := service.NewKeyDirectory(repos.keys)
	marathon := service.NewMarathonService(repos.buckets, movies, c, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.JSONSerializer = handler.JSONSerializer{}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORS())

	limiter := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	router.RegisterRoutes(e)
	router.RegisterWatchParty(e, handler.NewWatchPartyHandler(sessions, messages, notifier, keys, log), cfg.JWTSecret, limiter)
	router.RegisterMarathon(e, handler.NewMarathonHandler(marathon, log), cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// openStore returns the MySQL repositories (migrating the schema first) or
// the in-memory ones.  The returned *sql.DB is nil for the memory driver.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (repositories, *sql.DB) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return repositories{
			parties:       memory.NewWatchPartyRepo(),
			messages:      memory.NewMessageRepo(),
			notifications: memory.NewNotificationRepo(),
			keys:          memory.NewParticipantKeyRepo(),
			buckets:       memory.NewBucketRepo(),
		}, nil
	}

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.DB.Host).Msg("mysql connect failed")
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	return repositories{
		parties:       repository.NewWatchPartyRepo(db),
		messages:      repository.NewMessageRepo(db),
		notifications: repository.NewNotificationRepo(db),
		keys:          repository.NewParticipantKeyRepo(db),
		buckets:       repository.NewBucketRepo(db),
	}, db
}

// connectRedis returns nil when nothing needs Redis or it is unreachable.
func connectRedis(cfg config.Config, log zerolog.Logger) *redis.Client {
	if cfg.Cache.Backend != config.CacheRedis && !cfg.RateLimit.Enabled {
		return nil
	}
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		return nil
	}
	return rdb
}

func cacheStore(ctx context.Context, cfg config.Config, rdb *redis.Client, log zerolog.Logger) cache.Store {
	if cfg.Cache.Backend == config.CacheRedis {
		if rdb != nil {
			return cache.NewRedis(rdb)
		}
		log.Warn().Msg("CACHE_BACKEND=redis but redis is unreachable, using memory cache")
	}
	mem := cache.NewMemory()
	go mem.RunJanitor(ctx, cfg.Cache.SweepInterval)
	return mem
}
