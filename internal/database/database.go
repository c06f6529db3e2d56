package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dialects understood by RunMigrations.
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

// OpenDB opens the primary Read/Write pool and brings the schema up to date.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := OpenDBWithDSN(dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, DialectMySQL); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDBWithDSN creates and configures a MySQL connection pool for any DSN.
// It is used for both the primary and the read-only pools.
func OpenDBWithDSN(dsn string) (*sql.DB, error) {
	// 1. Normalise the DSN: timestamps scan into time.Time, migration files
	// may hold several statements, and RowsAffected counts matched rows
	// (the same as SQLite) so conditional updates can be checked.
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC

	// 2. Open a new connection pool.
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// 3. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 4. Ping the database to verify the connection.
	if err := db.Ping(); err != nil {
		log.Printf("Error connecting to database %s@%s: %v", cfg.DBName, cfg.Addr, err)
		db.Close()
		return nil, err
	}

	log.Printf("Database connection pool established (db=%s)", cfg.DBName)
	return db, nil
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(db *sql.DB, dialect string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case DialectMySQL:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}
