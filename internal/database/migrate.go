package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func ensureDatabase(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name is empty in url")
	}
	u.Path = "/postgres"
	adminURL := u.String()
	db, err := sql.Open("postgres", adminURL)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping admin connection: %w", err)
	}
	var exists bool
	if err := db.QueryRow("SELECT true FROM pg_database WHERE datname = $1", dbName).Scan(&exists); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}
	if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	slog.Info("database: created", slog.String("database", dbName))
	return nil
}

func withMigrations(ctx context.Context, databaseURL string, fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return fn(ctx, db)
}

// MigrateUp создаёт базу при необходимости и применяет все миграции.
func MigrateUp(databaseURL string) error {
	if err := ensureDatabase(databaseURL); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	return withMigrations(context.Background(), databaseURL, func(ctx context.Context, db *sql.DB) error {
		before, _ := goose.GetDBVersionContext(ctx, db)
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return err
		}
		after, _ := goose.GetDBVersionContext(ctx, db)
		if before == after {
			slog.Info("migrate: no pending migrations", slog.Int64("version", after))
		} else {
			slog.Info("migrate: up ok", slog.Int64("from", before), slog.Int64("to", after))
		}
		return nil
	})
}

// MigrateDown откатывает последнюю миграцию.
func MigrateDown(databaseURL string) error {
	return withMigrations(context.Background(), databaseURL, func(ctx context.Context, db *sql.DB) error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

// MigrateStatus печатает состояние миграций через логгер goose.
func MigrateStatus(databaseURL string) error {
	return withMigrations(context.Background(), databaseURL, func(ctx context.Context, db *sql.DB) error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}
