package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stamp_card/internal/config"
	"stamp_card/internal/handler"
	"stamp_card/internal/middleware"
	"stamp_card/internal/push"
	"stamp_card/internal/realtime"
	"stamp_card/internal/repository"
	"stamp_card/internal/service"
	"stamp_card/internal/utils"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// --- State Store ---
	store, closeStore := openStateStore(cfg)
	defer closeStore()

	// --- Push Keys ---
	keys := push.VAPIDKeys{PublicKey: cfg.VAPIDPublicKey, PrivateKey: cfg.VAPIDPrivateKey}
	if keys.PublicKey == "" || keys.PrivateKey == "" {
		keys, err = push.LoadOrGenerateVAPIDKeys(cfg.VAPIDKeysFile)
		if err != nil {
			log.Fatalf("Failed to load VAPID keys: %v", err)
		}
	}
	sender := push.NewWebPushSender(keys, cfg.VAPIDSubject, nil)

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpirationHours)
	hub := realtime.NewHub()

	// --- Initialize Services ---
	loyaltyService, err := service.NewLoyaltyService(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed to initialize state: %v", err)
	}
	authService := service.NewAuthService(loyaltyService, jwtUtil)
	pushService := service.NewPushService(loyaltyService, sender, cfg.PushConcurrency)
	menuService := service.NewMenuService(repository.NewMenuRepository(cfg.MenuFile))

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	loyaltyHandler := handler.NewLoyaltyHandler(loyaltyService, hub)
	pushHandler := handler.NewPushHandler(pushService, keys.PublicKey)
	menuHandler := handler.NewMenuHandler(menuService)
	realtimeHandler := handler.NewRealtimeHandler(hub, cfg.StaticDir)

	// --- Setup Gin Router ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	var adminMW gin.HandlerFunc
	if cfg.RequireAdminAuth {
		adminMW = middleware.AdminAuthMiddleware(authService)
		log.Println("Admin routes require a bearer token")
	}

	// --- Register Routes ---
	authHandler.RegisterAuthRoutes(router)
	loyaltyHandler.RegisterLoyaltyRoutes(router, adminMW)
	pushHandler.RegisterPushRoutes(router, adminMW)
	menuHandler.RegisterMenuRoutes(router, adminMW)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": store.Driver(), "observers": hub.Count()})
	})
	realtimeHandler.RegisterRealtimeRoutes(router)

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on http://localhost:%s", cfg.ServerPort)
		log.Printf("VAPID public key for clients: %s", keys.PublicKey)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// openStateStore builds the configured StateStore and a func releasing its resources
func openStateStore(cfg *config.Config) (repository.StateStore, func()) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbCfg, err := config.LoadDBConfig()
		if err != nil {
			log.Fatalf("Failed to load DB config: %v", err)
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		pool, err := config.ConnectDB(ctx, dbCfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := config.AutoMigrate(ctx, pool); err != nil {
			pool.Close()
			log.Fatalf("Failed to auto-migrate database: %v", err)
		}
		return repository.NewPgStateStore(pool, cfg.DefaultAdmin), pool.Close
	case config.StoreDriverSQLite:
		store, db, err := repository.OpenSQLiteStateStore(cfg.SQLitePath, cfg.DefaultAdmin)
		if err != nil {
			log.Fatalf("Failed to open SQLite state store: %v", err)
		}
		log.Printf("State stored in SQLite database %s", cfg.SQLitePath)
		return store, func() { db.Close() }
	default:
		log.Printf("State stored in %s", cfg.DataFile)
		return repository.NewFileStateStore(cfg.DataFile, cfg.DefaultAdmin), func() {}
	}
}
