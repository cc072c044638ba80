package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShaofengChu/gemini-ui-server/internal/auth"
	"github.com/ShaofengChu/gemini-ui-server/internal/llm"
	"github.com/ShaofengChu/gemini-ui-server/internal/orchestrator"
	"github.com/ShaofengChu/gemini-ui-server/internal/toolexec"
	"github.com/ShaofengChu/gemini-ui-server/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// main is the composition root: it loads configuration, initializes all
// services, injects dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Gemini UI Server | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	// 2. INITIALIZE SERVICES
	catalog := tools.DefaultCatalog()
	log.Printf("✅ Tool catalog declared with %d tools.", catalog.Count())

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	log.Printf("✅ Credential issuer ready (token TTL %s).", issuer.TTL())

	ctx := context.Background()
	model, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName, catalog, cfg.MaxOutputTokens)
	if err != nil {
		log.Fatalf("❌ FATAL: Could not create Gemini client: %v", err)
	}
	defer model.Close()

	invoker := toolexec.NewInvoker(cfg.ToolServerBaseURL, cfg.ToolTimeout)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatalf("❌ FATAL: Could not connect to Redis: %v", err)
		}
		log.Println("✅ Redis response cache enabled.")
	} else {
		log.Println("ℹ️ REDIS_ADDR not set, response cache disabled.")
	}

	orch := orchestrator.New(model, issuer, invoker, catalog)
	gatewayHandler := NewGatewayHandler(orch, cfg.ModelName, rdb, cfg.CacheTTL)
	log.Println("✅ All services initialized.")

	// 3. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	engine.POST("/api/process", gatewayHandler.HandleProcess)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model": cfg.ModelName})
	})
	engine.StaticFile("/", "./static/index.html")
	engine.Static("/static", "./static")

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}
