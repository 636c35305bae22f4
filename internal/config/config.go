// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strings"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Database fields are only required when
// the mysql persistence driver is selected; the engine runs correctly
// with no persistence at all.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DefaultSession    string // session id observers join when they declare none
	PersistenceDriver string // "mysql", "redis" or "none"
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	TimelineConsumer  bool   // run the in-process timeline audit consumer
}

// Load reads configuration from the environment. Variables required by
// the selected persistence driver are enforced by must(); missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:               getenv("APP_ENV", "dev"),
		Port:              getenv("APP_PORT", "4000"),
		DefaultSession:    getenv("DEFAULT_SESSION", "live"),
		PersistenceDriver: strings.ToLower(getenv("PERSISTENCE_DRIVER", "none")),
		TimelineConsumer:  getenv("TIMELINE_CONSUMER", "false") == "true",
	}
	if cfg.PersistenceDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or def when unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
