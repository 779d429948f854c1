package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// quoteDSNValue single-quotes a value for the key=value DSN format,
// escaping backslashes and embedded quotes. Passwords with spaces or
// '=' would otherwise break DSN parsing.
func quoteDSNValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// PostgresConnectionString returns the pgx DSN for the fact store pool.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		quoteDSNValue(c.PostgresPassword),
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}

// PostgresURL returns the URL form of the same settings, as consumed by
// the migration runner. url.URL handles credential escaping.
func (c *Config) PostgresURL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.PostgresSSLMode),
	}
	return u.String()
}

// parseDatabaseURL overlays the postgres_* settings with DATABASE_URL
// when it is set. Components absent from the URL keep their configured
// values, so a bare postgres://host/db still inherits port and
// credentials from the rest of the config.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL format: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://, got %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port in DATABASE_URL: %w", err)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		if user := u.User.Username(); user != "" {
			c.PostgresUser = user
		}
		if password, ok := u.User.Password(); ok {
			c.PostgresPassword = password
		}
	}
	if u.Path != "" {
		c.PostgresDBName = strings.TrimPrefix(u.Path, "/")
	}
	if sslmode := u.Query().Get("sslmode"); sslmode != "" {
		c.PostgresSSLMode = sslmode
	}
	return nil
}
