package database

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	mysqlDefaultPort = 3306
	mysqlCollation   = "utf8mb4_unicode_ci"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// buildMySQLDSN renders the DSN through the driver so timestamps round-trip as UTC.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("mysql", cfg); err != nil {
		return "", err
	}

	dc := mysqldriver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(hostOrLoopback(cfg.Host, "127.0.0.1"), strconv.Itoa(portOrDefault(cfg.Port, mysqlDefaultPort)))
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Collation = mysqlCollation
	dc.Timeout = connectTimeoutSecs * time.Second
	if len(cfg.Options) > 0 {
		dc.Params = make(map[string]string, len(cfg.Options))
		for key, value := range cfg.Options {
			dc.Params[key] = value
		}
	}

	dsn := dc.FormatDSN()
	if _, err := mysqldriver.ParseDSN(dsn); err != nil {
		return "", fmt.Errorf("invalid mysql options: %w", err)
	}
	return dsn, nil
}

func requireCredentials(driver string, cfg Config) error {
	if strings.TrimSpace(cfg.User) == "" || strings.TrimSpace(cfg.Name) == "" {
		return errors.New(driver + " configuration requires user and database name")
	}
	return nil
}

func hostOrLoopback(host, loopback string) string {
	if host = strings.TrimSpace(host); host != "" {
		return host
	}
	return loopback
}

func portOrDefault(port, fallback int) int {
	if port <= 0 {
		return fallback
	}
	return port
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
