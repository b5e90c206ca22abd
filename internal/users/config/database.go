package config

import (
	"net/url"
)

// DefaultDatabaseURL - строка подключения, если DATABASE_URL не задан.
const DefaultDatabaseURL = "postgresql://postgres:postgres@db:5432/postgresdb"

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	URL     string `yaml:"url" env:"DATABASE_URL" env-default:"postgresql://postgres:postgres@db:5432/postgresdb"`
	MinConn int    `yaml:"min_conn" env:"USERS_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn int    `yaml:"max_conn" env:"USERS_POSTGRES_MAX_CONN" env-default:"10"`
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (p *PostgresConfig) GetDSN() string {
	if p.URL == "" {
		return DefaultDatabaseURL
	}
	return p.URL
}

// RedactedURL возвращает строку подключения без пароля, пригодную для логов.
func (p *PostgresConfig) RedactedURL() string {
	u, err := url.Parse(p.GetDSN())
	if err != nil || u.Scheme == "" {
		return "<unparsable dsn>"
	}
	return u.Redacted()
}
