package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gateway-console/internal/audit"
	"gateway-console/internal/config"
	"gateway-console/internal/gateway"
	"gateway-console/internal/handlers"
	"gateway-console/internal/logger"
	"gateway-console/internal/middleware"
	"gateway-console/internal/services"
	"gateway-console/internal/session"
	"gateway-console/internal/templates"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	flag.Parse()

	printBanner()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Printf("Failed to init logger, using silent: %v", err)
		logger.InitSilent()
	}
	defer logger.Sync()

	if err := os.MkdirAll("./data", 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize audit database: %v", err)
	}
	if err := audit.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate audit database: %v", err)
	}
	recorder := audit.NewRecorder(db)

	store := session.NewStore(session.NewFileStorage(cfg.Session.Path, cfg.Session.Secret))

	backend := gateway.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		store.Token,
	)

	usageHub := services.NewUsageHub(backend, 30*time.Second)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go usageHub.Run(hubCtx)

	router := chi.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.RequestLogger)
	router.Use(middleware.MaxRequestSize(1 << 20))

	consoleHandler, err := handlers.NewConsoleHandler(cfg, store, backend, usageHub, recorder)
	if err != nil {
		log.Fatalf("Failed to initialize console handler: %v", err)
	}
	consoleHandler.RegisterRoutes(router)

	healthHandler := handlers.NewHealthHandler(db, backend)
	healthHandler.RegisterRoutes(router)

	if cfg.Prometheus.Enabled {
		metricsHandler := handlers.NewMetricsHandler(cfg.Prometheus.Username, cfg.Prometheus.Password)
		metricsHandler.RegisterRoutes(router)
		log.Printf("Prometheus metrics enabled at /metrics (auth: %s)", cfg.Prometheus.Username)
	}

	router.Handle("/static/*", http.FileServer(http.FS(templates.Static)))

	serverPort := cfg.Server.Port
	if *port > 0 {
		serverPort = *port
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, serverPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Console starting on %s (backend: %s)", addr, cfg.Backend.BaseURL)
		if cfg.Server.HTTPS.Enabled && cfg.Server.HTTPS.CertFile != "" && cfg.Server.HTTPS.KeyFile != "" {
			log.Fatal(server.ListenAndServeTLS(cfg.Server.HTTPS.CertFile, cfg.Server.HTTPS.KeyFile))
		} else {
			log.Fatal(server.ListenAndServe())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down console...")
	hubCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Console exited")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Audit.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func printBanner() {
	fmt.Println("Gateway Console v" + version + " (" + commit + ")")
}
