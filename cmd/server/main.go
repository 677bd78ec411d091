package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"qchat/internal/ai"
	"qchat/internal/chat"
	"qchat/internal/handler"
	"qchat/internal/metrics"
	"qchat/internal/middleware"
	"qchat/internal/quantum"
	"qchat/internal/repository/postgres"
	"qchat/pkg/cache"
	"qchat/pkg/config"
	"qchat/pkg/logger"
	"qchat/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("qchat-server")

	log.Info("Starting quantum chat server", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required", nil)
	}

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redisClient.Close()

	log.Info("Redis connected", nil)

	// Key source is chosen once at startup and never swapped mid-session.
	var source quantum.Source
	if cfg.Quantum.UseSimulator {
		source = quantum.NewSimulatorSource()
	} else {
		source = quantum.NewRandomSource()
	}
	keyGen := quantum.NewGenerator(source, log)

	log.Info("Key generator ready", map[string]interface{}{
		"source":       source.Name(),
		"default_bits": cfg.Quantum.DefaultBits,
	})

	// Repositories and services
	sessionRepo := postgres.NewSessionRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	chatService := chat.NewService(sessionRepo, messageRepo, eventRepo, keyGen, log)
	advisor := ai.NewGeminiAdvisor(context.Background(), cfg.AI, log)

	// Handlers
	val := validator.New()
	redisCache := cache.NewFromClient(redisClient)
	sessionHandler := handler.NewSessionHandler(chatService, cfg.Quantum.DefaultBits, val, log)
	messageHandler := handler.NewMessageHandler(chatService, val, log)
	aiHandler := handler.NewAIHandler(advisor, chatService, redisCache, cfg.AI.InsightsCacheTTL, val, log)
	streamHandler := handler.NewStreamHandler(chatService, log)

	// Router
	r := mux.NewRouter()

	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB global cap
	r.Use(middleware.NewRateLimiter(redisClient, 120, time.Minute).Limit)

	r.HandleFunc("/health", handler.Health).Methods("GET")
	r.HandleFunc("/ready", handler.Ready(db)).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sessions", sessionHandler.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/join", sessionHandler.JoinSession).Methods("POST")
	api.HandleFunc("/sessions/{code}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{code}/key", sessionHandler.GenerateKey).Methods("POST")
	api.HandleFunc("/sessions/{code}/messages", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/sessions/{code}/messages", messageHandler.GetMessages).Methods("GET")
	api.HandleFunc("/sessions/{code}/attack", messageHandler.SimulateAttack).Methods("POST")
	api.HandleFunc("/sessions/{code}/analytics", sessionHandler.Analytics).Methods("GET")
	api.HandleFunc("/sessions/{code}/export", sessionHandler.ExportChat).Methods("POST")

	api.HandleFunc("/ai/analyze", aiHandler.AnalyzeMessage).Methods("POST")
	api.HandleFunc("/ai/translate", aiHandler.Translate).Methods("POST")
	api.HandleFunc("/sessions/{code}/ai/replies", aiHandler.SmartReplies).Methods("POST")
	api.HandleFunc("/sessions/{code}/ai/insights", aiHandler.Insights).Methods("GET")
	api.HandleFunc("/sessions/{code}/ai/key-analysis", aiHandler.KeyAnalysis).Methods("POST")

	r.HandleFunc("/ws/sessions/{code}", streamHandler.Stream).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Server stopped gracefully", nil)
}
