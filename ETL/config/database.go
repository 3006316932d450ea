package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

// DBConnections holds the database connections of the ETL process
type DBConnections struct {
	OLTPDB     *sql.DB
	OLAPDB     *sql.DB
	ClickHouse clickhouse.Conn
}

// DSN builds the MySQL DSN of the database
func (c DatabaseConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.DBName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// OpenDatabase opens and pings a MySQL database
func OpenDatabase(ctx context.Context, dbConfig DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(dbConfig.Driver, dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbConfig.DBName, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database %s: %w", dbConfig.DBName, err)
	}

	return db, nil
}

// ConnectDatabases connects to the OLTP and OLAP databases and, when configured, to ClickHouse.
// The OLTP database is skipped when events are read from a file.
func ConnectDatabases(ctx context.Context, config ETLConfig) (*DBConnections, error) {
	var connections DBConnections
	var err error

	if config.Source == SourceDB {
		connections.OLTPDB, err = OpenDatabase(ctx, config.OLTPConfig)
		if err != nil {
			return nil, fmt.Errorf("OLTP connection failed: %w", err)
		}
	}

	connections.OLAPDB, err = OpenDatabase(ctx, config.OLAPConfig)
	if err != nil {
		CloseDatabases(&connections)
		return nil, fmt.Errorf("OLAP connection failed: %w", err)
	}

	if config.ClickHouse.Enabled() {
		connections.ClickHouse, err = OpenClickHouse(ctx, config.ClickHouse)
		if err != nil {
			CloseDatabases(&connections)
			return nil, fmt.Errorf("ClickHouse connection failed: %w", err)
		}
	}

	log.Info("Connected to ETL databases")
	return &connections, nil
}

// OpenClickHouse opens a native ClickHouse connection and pings it
func OpenClickHouse(ctx context.Context, chConfig ClickHouseConfig) (clickhouse.Conn, error) {
	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", chConfig.Host, chConfig.Port)},
		Auth: clickhouse.Auth{
			Database: chConfig.Database,
			Username: chConfig.Username,
			Password: chConfig.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "clickstream-etl", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 5 * time.Second,
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return conn, nil
}

// CloseDatabases closes every open connection
func CloseDatabases(connections *DBConnections) {
	if connections.OLTPDB != nil {
		if err := connections.OLTPDB.Close(); err != nil {
			log.Warnf("Failed to close OLTP connection: %v", err)
		}
	}

	if connections.OLAPDB != nil {
		if err := connections.OLAPDB.Close(); err != nil {
			log.Warnf("Failed to close OLAP connection: %v", err)
		}
	}

	if connections.ClickHouse != nil {
		if err := connections.ClickHouse.Close(); err != nil {
			log.Warnf("Failed to close ClickHouse connection: %v", err)
		}
	}

	log.Info("ETL database connections closed")
}
