package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/race-weather/internal/api/http"
	"github.com/i474232898/race-weather/internal/config"
	"github.com/i474232898/race-weather/internal/logger"
	"github.com/i474232898/race-weather/internal/metrics"
	"github.com/i474232898/race-weather/internal/racecontrol"
	"github.com/i474232898/race-weather/internal/scheduler"
	"github.com/i474232898/race-weather/internal/store"
	"github.com/i474232898/race-weather/internal/weather"
	"github.com/i474232898/race-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	lg := logger.GetLogger()
	defer logger.Close()

	displayLoc, err := cfg.DisplayLocation()
	if err != nil {
		lg.Fatalw("invalid display timezone", "error", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoOptions{
		BaseURL: cfg.OpenMeteoURL,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialBackoff,
			MaxInterval:     cfg.MaxBackoff,
		},
		Limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	})

	// Forecast cache: redis when configured, in-memory otherwise.
	var cache weather.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			lg.Warnw("redis unreachable; cache errors will degrade to direct fetches", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		cache = store.NewRedisCache(rdb, "")
		lg.Infow("using redis forecast cache", "addr", cfg.RedisAddr)
	} else {
		cache = store.NewMemoryCache(cfg.CacheMaxEntries)
	}

	service := weather.NewService(provider, cache, cfg.CacheTTL, m)

	controller := racecontrol.New(service, racecontrol.Options{
		Concurrency: cfg.RallyConcurrency,
		Location:    displayLoc,
		Metrics:     m,
	})

	deps := httpapi.Deps{
		Dashboard:     controller,
		Cache:         service,
		Home:          cfg.Home(),
		DefaultStepKm: cfg.StepKm,
	}
	if cfg.GeocoderAPIKey != "" {
		geo, err := providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
		if err != nil {
			lg.Fatalw("failed to configure geocoder", "error", err)
		}
		deps.Geocoder = geo
	}

	// Keep the home point warm.
	sched := scheduler.New([]weather.Location{cfg.Home()}, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		lg.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "race-weather",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		BodyLimit:             cfg.MaxUploadBytes,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "race-weather",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, deps)

	go func() {
		lg.Infow("listening", "port", cfg.Port, "home", cfg.Home().Key())
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Errorw("error during shutdown", "error", err)
	}
}
