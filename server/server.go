package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ViewTube/cache"
	"ViewTube/config"
	"ViewTube/core/account"
	"ViewTube/core/session"
	"ViewTube/db"
	"ViewTube/logger"
	"ViewTube/model"
	"ViewTube/repository"
	"ViewTube/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	})

	uploader, err := storage.NewMinioClient(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.WatchHistoryEntry{}); err != nil {
		logger.Fatal("Failed to migrate models", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		// The profile cache is optional; the service runs without it.
		logger.Warn("Failed to connect to Redis, profile cache disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	historyRepo := repository.NewGormWatchHistoryRepository(db.GormDB)

	sessions := session.NewService(userRepo, cfg)
	accounts := account.NewService(userRepo, historyRepo, uploader, cfg)
	apiHandler := NewAPIHandler(sessions, accounts, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth endpoints
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", apiHandler.AuthMiddleware(apiHandler.LogoutHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/refresh", apiHandler.RefreshHandler).Methods(http.MethodPost)

	// User endpoints
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.CurrentUserHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me", apiHandler.AuthMiddleware(apiHandler.UpdateDetailsHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/users/me/avatar", apiHandler.AuthMiddleware(apiHandler.UpdateAvatarHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/users/me/cover", apiHandler.AuthMiddleware(apiHandler.UpdateCoverImageHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/users/password", apiHandler.AuthMiddleware(apiHandler.ChangePasswordHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/users/me/history", apiHandler.AuthMiddleware(apiHandler.WatchHistoryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me/history", apiHandler.AuthMiddleware(apiHandler.AddWatchEntryHandler)).Methods(http.MethodPost)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("Server exited.")
}

// corsMiddleware applies permissive CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
