package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/handler"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/otp"
	"rollcall/internal/queue"
	"rollcall/internal/store"
	"rollcall/internal/student"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		return err
	}

	// Redis is only dialed when an otp or queue backend needs it.
	var redisClient *store.Redis
	if cfg.OTPBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		if !redisClient.Healthy(context.Background()) {
			log.Printf("warning: redis not reachable at %s", cfg.RedisAddr)
		}
	}

	var otpStore otp.Store
	if cfg.OTPBackend == "redis" {
		otpStore = otp.NewRedisStore(redisClient.Client)
	} else {
		otpStore = otp.NewMemoryStore()
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:notifications")
	} else {
		q = queue.NewInMemory(64)
		go logNotifications(q)
	}

	studentRepo := student.NewRepository(db)
	students := student.NewService(studentRepo, cfg.FaceMatchThreshold)
	att := attendance.NewService(attendance.NewRepository(db))
	otpMgr := otp.NewManager(otpStore, studentRepo, cfg.OTPTTL)

	h := handler.New(students, att, otpMgr, q, cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (db backend: %s)", cfg.HTTPPort, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// logNotifications drains the in-memory queue in-process. With the redis
// backend the cmd/notifier binary does this instead.
func logNotifications(q queue.Queue) {
	messages, err := q.Consume(context.Background())
	if err != nil {
		log.Printf("queue consume init failed: %v", err)
		return
	}
	for msg := range messages {
		queue.LogDelivery(msg)
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
