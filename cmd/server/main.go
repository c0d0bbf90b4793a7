package main // Entry point package

import (
	"context" // Background contexts for long-lived goroutines
	"log"     // Logging library
	"time"    // Tickers for background cleanup

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/live-song-requests/internal/config"     // Internal config loader
	"github.com/iliyamo/live-song-requests/internal/database"   // MySQL pool and schema bootstrap
	"github.com/iliyamo/live-song-requests/internal/handler"    // HTTP handlers
	"github.com/iliyamo/live-song-requests/internal/hub"        // Live notification fan-out
	"github.com/iliyamo/live-song-requests/internal/middleware" // Rate limit + cache middleware
	"github.com/iliyamo/live-song-requests/internal/queue"      // RabbitMQ consumer
	"github.com/iliyamo/live-song-requests/internal/repository" // Data access layer
	"github.com/iliyamo/live-song-requests/internal/router"     // Route registration
	"github.com/iliyamo/live-song-requests/internal/service"    // Domain services
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool and make sure the schema exists before
	// serving traffic.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis is optional: a nil client turns the rate limiter and the
	// response cache into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	requests := repository.NewRequestRepo(db)
	votes := repository.NewVoteRepo(db)
	sessions := repository.NewSessionRepo(db)
	stats := repository.NewStatsRepo(db)

	// Services.
	liveHub := hub.New()
	guard := service.NewVoteGuard(votes, requests, users)
	tracker := service.NewSessionTracker(sessions, cfg.ActiveWindow, cfg.SessionRequestLimit, cfg.StaleSessionTTL)
	dash := service.NewDashboard(stats, events, sessions, cfg.ActiveWindow)

	// Background work: the session reaper prunes idle sessions, expired
	// refresh tokens are swept on the same cadence, and the consumer
	// drains approved-request messages from the broker.
	tracker.StartReaper(context.Background(), cfg.ReaperInterval)
	go func() {
		ticker := time.NewTicker(cfg.ReaperInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := tokens.DeleteExpired(ctx, time.Now().UTC()); err != nil {
				log.Printf("token-cleanup: %v", err)
			} else if n > 0 {
				log.Printf("token-cleanup: removed %d expired refresh tokens", n)
			}
			cancel()
		}
	}()
	go func() {
		if err := queue.StartApprovedConsumer(); err != nil {
			log.Printf("queue consumer: %v", err)
		}
	}()

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	eventH := handler.NewEventHandler(events)
	requestH := handler.NewRequestHandler(requests, events, users, tracker, liveHub)
	voteH := handler.NewVoteHandler(guard, liveHub)
	dashH := handler.NewDashboardHandler(dash)
	liveH := handler.NewLiveHandler(cfg, liveHub, events, tracker)

	// Middleware built from Redis-backed config.
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterDJ(e, eventH, requestH, dashH, cfg.JWTSecret)
	router.RegisterAudience(e, requestH, voteH, cfg.JWTSecret, rateLimit)
	router.RegisterPublic(e, eventH, requestH, dashH, cache)
	router.RegisterLive(e, liveH)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
