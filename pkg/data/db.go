package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// Init opens the database at dbFilePath and applies the schema.
func Init(dbFilePath string) (*sql.DB, error) {
	if dbFilePath == "" {
		return nil, errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return nil, err
	}

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema in: %s: %w", dbFilePath, err)
	}
	slog.Debug("db schema applied", "path", dbFilePath)

	return db, nil
}

func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %s: %w", path, err)
	}
	return conn, nil
}
