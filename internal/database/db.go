// Package database opens the MySQL pool and owns the table definitions.
package database

import (
	"context"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pool-reservation/internal/config"
)

// Open connects to MySQL and pings it. DATE and DATETIME values are read
// and written in the facility timezone so civil dates round-trip as-is.
func Open(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	dsn := mysql.Config{
		User:                 cfg.DBUser,
		Passwd:               cfg.DBPass,
		Net:                  "tcp",
		Addr:                 net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		DBName:               cfg.DBName,
		Params:               map[string]string{"charset": "utf8mb4"},
		ParseTime:            true,
		Loc:                  loc,
		AllowNativePasswords: true,
	}
	db, err := sqlx.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
