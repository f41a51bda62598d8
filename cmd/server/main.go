package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/auth"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/config"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/handler"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/middleware"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/pathcodec"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/repository/postgres"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/service"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/selector"

	domainServices "github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	pathCodec, err := pathcodec.New(cfg.PathSecret)
	if err != nil {
		log.Fatalf("Failed to create path codec: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	shareRepo := postgres.NewShareRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	storageManager, err := selector.NewManager(cfg.StorageConfigPath, logger)
	if err != nil {
		log.Fatalf("Failed to load storage configuration: %v", err)
	}
	logger.Info("storage selector ready", "mode", storageManager.Mode())

	folderService := service.NewFolderService(folderRepo, fileRepo, logger)
	treeService := service.NewTreeService(folderRepo, fileRepo, storageManager, txManager, logger)
	fileService := service.NewFileService(fileRepo, folderRepo, storageManager, txManager, logger)
	shareService := service.NewShareService(shareRepo, fileRepo, folderRepo, logger)
	userService := service.NewUserService(userRepo, folderRepo, fileRepo, storageManager, txManager, logger)

	userHandler := handler.NewUserHandler(userService, sessions, logger)
	folderHandler := handler.NewFolderHandler(folderService, treeService, userService, sessions, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	moveHandler := handler.NewMoveHandler(treeService, logger)
	shareHandler := handler.NewShareHandler(shareService, fileService, logger)
	storageHandler := handler.NewStorageHandler(storageManager, logger)
	browseHandler := handler.NewBrowseHandler(folderService, pathCodec, logger)

	logger.Info("services initialized")

	go sweepExpiredShares(ctx, shareService, cfg.ShareSweepInterval, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/auth/login", userHandler.Login)
	mux.HandleFunc("GET /api/users/me", userHandler.Me)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.Create)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.Contents)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.Rename)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.Delete)
	mux.HandleFunc("GET /api/folders/{id}/descendants", folderHandler.Descendants)
	mux.HandleFunc("POST /api/folders/{id}/lock", folderHandler.Lock)
	mux.HandleFunc("POST /api/folders/{id}/unlock", folderHandler.Unlock)
	mux.HandleFunc("POST /api/folders/{id}/password", folderHandler.ChangePassword)
	mux.HandleFunc("DELETE /api/folders/{id}/lock", folderHandler.RemoveLock)

	// Token-based navigation
	mux.HandleFunc("GET /api/browse", browseHandler.Browse)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.Upload)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.Get)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.Rename)
	mux.HandleFunc("POST /api/files/delete", fileHandler.Delete)

	// Move engine
	mux.HandleFunc("POST /api/move/check", moveHandler.CheckConflicts)
	mux.HandleFunc("POST /api/move", moveHandler.Move)

	// Share routes
	mux.HandleFunc("POST /api/shares", shareHandler.Create)
	mux.HandleFunc("GET /api/shares", shareHandler.List)
	mux.HandleFunc("DELETE /api/shares/{id}", shareHandler.Revoke)

	// Public share routes (no session required)
	mux.HandleFunc("GET /public/shares/{token}", shareHandler.Resolve)
	mux.HandleFunc("GET /public/shares/{token}/folders/{id}", shareHandler.BrowseFolder)
	mux.HandleFunc("GET /public/shares/{token}/files/{id}/download", shareHandler.DownloadFile)

	// Admin routes
	mux.HandleFunc("GET /api/admin/storage", middleware.RequireAdmin(storageHandler.Get))
	mux.HandleFunc("PUT /api/admin/storage", middleware.RequireAdmin(storageHandler.Update))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(userHandler.DeleteUser))

	// Build middleware chain (applied in reverse order, they wrap each other)
	var root http.Handler = mux
	root = middleware.Auth(sessions)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays off so large downloads are never cut short.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// sweepExpiredShares drops expired share rows on a fixed interval.
func sweepExpiredShares(ctx context.Context, shares domainServices.ShareService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := shares.PurgeExpired(ctx); err != nil {
				logger.Warn("share sweep failed", "error", err)
			}
		}
	}
}
