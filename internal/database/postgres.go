package database

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	postgresDefaultPort = 5432
	connectTimeoutSecs  = 5
	applicationName     = "taskflow"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a keyword/value connection string. TLS is required
// unless the server is on a loopback address.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("postgres", cfg); err != nil {
		return "", err
	}

	host := hostOrLoopback(cfg.Host, "localhost")
	sslmode := "require"
	if isLoopback(host) {
		sslmode = "disable"
	}

	params := map[string]string{
		"host":             host,
		"port":             strconv.Itoa(portOrDefault(cfg.Port, postgresDefaultPort)),
		"user":             cfg.User,
		"dbname":           cfg.Name,
		"sslmode":          sslmode,
		"connect_timeout":  strconv.Itoa(connectTimeoutSecs),
		"application_name": applicationName,
	}
	if cfg.Password != "" {
		params["password"] = cfg.Password
	}
	for key, value := range cfg.Options {
		params[key] = value
	}

	// Connection keywords lead so the string reads naturally; options follow sorted.
	leading := []string{"host", "port", "user", "dbname"}
	parts := make([]string, 0, len(params))
	for _, key := range leading {
		parts = append(parts, key+"="+quotePostgresValue(params[key]))
		delete(params, key)
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+quotePostgresValue(params[key]))
	}

	dsn := strings.Join(parts, " ")
	if _, err := pgconn.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("invalid postgres options: %w", err)
	}
	return dsn, nil
}

func quotePostgresValue(value string) string {
	if value != "" && !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
