package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"quiz-engine/internal/account"
	"quiz-engine/internal/achievement"
	"quiz-engine/internal/analytics"
	"quiz-engine/internal/attempt"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/catalog"
	"quiz-engine/internal/config"
	"quiz-engine/internal/leaderboard"
	"quiz-engine/pkg/cache"
	"quiz-engine/pkg/database"
	"quiz-engine/pkg/websocket"
)

func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.Open(&database.Config{
		Type:     cfg.DBType,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		Path:     cfg.DBPath,
		LogLevel: cfg.DBLogLevel,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis is optional; without it every read goes to the database.
	var quizCache catalog.QuizCache
	var rankCache leaderboard.Cache
	redisCache := cache.NewRedisCache(cfg.RedisAddr)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Printf("Warning: redis unavailable at %s, caching disabled: %v", cfg.RedisAddr, err)
		redisCache.Close()
	} else {
		quizCache = redisCache
		rankCache = redisCache
		defer redisCache.Close()
	}
	cancelPing()

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(nil)
	go wsHub.Run()

	// Initialize repositories
	userRepo := account.NewRepository(db)
	attemptRepo := attempt.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	achievementRepo := achievement.NewRepository(db)

	// Initialize services
	catalogService := catalog.NewService(catalogRepo, quizCache, cfg.QuizCacheTTL)
	authService := auth.NewService(userRepo, cfg.JWTSecret)
	analyticsService := analytics.NewService(attemptRepo, catalogService, userRepo)
	leaderboardService := leaderboard.NewService(attemptRepo, catalogService, userRepo, rankCache, cfg.LeaderboardTTL)
	achievementService := achievement.NewService(achievementRepo, userRepo)
	achievementService.SetNotifier(wsHub)

	if cfg.SeedAchievements {
		if _, err := achievementService.SeedDefaults(context.Background()); err != nil {
			log.Fatalf("Failed to seed achievements: %v", err)
		}
	}

	// Post-commit steps run in this order after every submission.
	attemptService := attempt.NewService(attemptRepo, catalogService,
		analytics.NewStatsUpdater(attemptRepo, userRepo),
		achievementService,
		leaderboardService,
		wsHub,
	)

	// Initialize handlers
	authHandler := auth.NewHandler(authService)
	attemptHandler := attempt.NewHandler(attemptService)
	analyticsHandler := analytics.NewHandler(analyticsService)
	leaderboardHandler := leaderboard.NewHandler(leaderboardService)
	achievementHandler := achievement.NewHandler(achievementService)

	// Setup router
	router := mux.NewRouter()

	// Auth routes - no JWT required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// API routes - JWT required
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(cfg.JWTSecret))

	apiRouter.HandleFunc("/quizzes/{quizID:[0-9]+}/attempts", attemptHandler.Start).Methods("POST")
	apiRouter.HandleFunc("/attempts/{id}", attemptHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/attempts/{id}", attemptHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/attempts/{id}/questions", attemptHandler.Questions).Methods("GET")
	apiRouter.HandleFunc("/attempts/{id}/resume", attemptHandler.Resume).Methods("POST")
	apiRouter.HandleFunc("/attempts/{id}/submit", attemptHandler.Submit).Methods("POST")
	apiRouter.HandleFunc("/attempts/{id}/abandon", attemptHandler.Abandon).Methods("POST")
	apiRouter.HandleFunc("/me/attempts", attemptHandler.ListMine).Methods("GET")

	apiRouter.HandleFunc("/quizzes/{quizID:[0-9]+}/analytics", analyticsHandler.Quiz).Methods("GET")
	apiRouter.HandleFunc("/students/{userID:[0-9]+}/analytics", analyticsHandler.Student).Methods("GET")
	apiRouter.HandleFunc("/teachers/{userID:[0-9]+}/analytics", analyticsHandler.Teacher).Methods("GET")

	apiRouter.HandleFunc("/quizzes/{quizID:[0-9]+}/leaderboard", leaderboardHandler.Quiz).Methods("GET")
	apiRouter.HandleFunc("/quizzes/{quizID:[0-9]+}/leaderboard/me", leaderboardHandler.MyRank).Methods("GET")
	apiRouter.HandleFunc("/leaderboard", leaderboardHandler.Global).Methods("GET")

	apiRouter.HandleFunc("/me/achievements", achievementHandler.Mine).Methods("GET")
	apiRouter.HandleFunc("/me/achievements/evaluate", achievementHandler.EvaluateMine).Methods("POST")

	// WebSocket endpoint
	wsRouter := router.PathPrefix("/ws").Subrouter()
	wsRouter.Use(auth.JWTMiddleware(cfg.JWTSecret))
	wsRouter.HandleFunc("/quizzes/{quizID:[0-9]+}", wsHub.HandleWebSocket)

	// CORS middleware configuration
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	// Overdue attempts are expired here, outside the engine.
	scheduler := cron.New()
	if cfg.ExpirySweep != "off" {
		_, err := scheduler.AddFunc(cfg.ExpirySweep, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			expired, err := attemptService.ExpireOverdue(ctx)
			if err != nil {
				log.Printf("Expiry sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("Expiry sweep expired %d attempts", expired)
			}
		})
		if err != nil {
			log.Fatalf("Invalid EXPIRY_SWEEP %q: %v", cfg.ExpirySweep, err)
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown setup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	wsHub.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}
