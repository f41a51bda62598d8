// Command seed bootstraps the database schema and, optionally, an admin
// account. Run it once before the first server start:
//
//	go run ./cmd/seed --admin-user admin --admin-pass <password>
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/config"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/repository/postgres"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/service"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	adminUser := flag.String("admin-user", "", "Create an admin account with this username")
	adminPass := flag.String("admin-pass", "", "Password for the admin account")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: never drop production tables from here
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("refusing to drop tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *adminUser != "" {
		if *adminPass == "" {
			log.Fatalf("--admin-pass is required with --admin-user")
		}
		repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
		userRepo := postgres.NewUserRepository(repoConfig)
		folderRepo := postgres.NewFolderRepository(repoConfig)
		fileRepo := postgres.NewFileRepository(repoConfig)
		users := service.NewUserService(userRepo, folderRepo, fileRepo, nil, postgres.NewTransactionManager(pool), logger)

		user, err := users.Register(ctx, *adminUser, *adminPass, true)
		if err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Admin user created: %s (ID: %d)", user.Username, user.ID)
	}
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, t := range []string{tables.Shares, tables.Files, tables.Folders, tables.Users} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+t+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id BIGINT REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			is_locked BOOLEAN NOT NULL DEFAULT FALSE,
			password TEXT,
			UNIQUE(name, parent_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			message_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
			file_name TEXT NOT NULL,
			mimetype TEXT NOT NULL DEFAULT 'application/octet-stream',
			size BIGINT NOT NULL DEFAULT 0,
			file_id TEXT NOT NULL,
			thumb_file_id TEXT,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			folder_id BIGINT NOT NULL REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			storage_type TEXT NOT NULL,
			UNIQUE(file_name, folder_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createFiles); err != nil {
		return err
	}

	createShares := `
		CREATE TABLE IF NOT EXISTS ` + tables.Shares + ` (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			item_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			user_id BIGINT NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createShares); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_parent ON ` + tables.Folders + `(user_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_root_unique ON ` + tables.Folders + `(user_id) WHERE parent_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `files_folder ON ` + tables.Files + `(user_id, folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `shares_token ON ` + tables.Shares + `(token)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
