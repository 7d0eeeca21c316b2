// Package config assembles runtime settings from a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseURL = "custodia.sqlite3"
	defaultAddr        = ":8080"
	defaultTokenTTL    = 8 * time.Hour
	defaultAdminEmail  = "admin@localhost"
	defaultLoginRate   = 10
	defaultLoginBurst  = 5
)

// Config holds everything the server needs to start.
type Config struct {
	DatabaseURL string
	Addr        string

	// JWTSecret may be empty, in which case a secret persisted in the
	// database is used.
	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins []string
	AdminEmail  string
	LogFile     string

	// LoginRate is the number of login/register attempts allowed per minute
	// and client IP; LoginBurst is the bucket size.
	LoginRate  int
	LoginBurst int
}

const usage = `Usage: custodia [flags]

Flags:
  -d, -db <dsn>           SQLite path or postgres:// URL (env DATABASE_URL, default: custodia.sqlite3)
  -a, -addr <host:port>   listen address (env PORT, default: :8080)
  -admin <email>          admin email created on first run (env ADMIN_EMAIL)
  -ttl <duration>         token lifetime (env TOKEN_TTL, default: 8h)
  -l, -log <path>         log file path (env LOG_FILE, default: stdout/stderr only)
  -h, -help               show this help and exit

Other environment variables: JWT_SECRET, CORS_ORIGINS, LOGIN_RATE, LOGIN_BURST.
A .env file in the working directory is read if present.
`

// Load reads ./.env (if any), the process environment and args.
// flag.ErrHelp is returned unchanged when -h is given.
func Load(args []string) (*Config, error) {
	dotenv, err := godotenv.Read(".env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return parse(args, lookup(dotenv))
}

// lookup prefers non-empty values from the real environment over the .env file.
func lookup(dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

func parse(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL: defaultDatabaseURL,
		Addr:        defaultAddr,
		TokenTTL:    defaultTokenTTL,
		CORSOrigins: []string{"*"},
		AdminEmail:  defaultAdminEmail,
		LoginRate:   defaultLoginRate,
		LoginBurst:  defaultLoginBurst,
	}

	if v := getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Addr = listenAddr(v)
	}
	cfg.JWTSecret = getenv("JWT_SECRET")
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := getenv("ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	cfg.LogFile = getenv("LOG_FILE")

	var err error
	if cfg.LoginRate, err = positiveInt(getenv("LOGIN_RATE"), cfg.LoginRate); err != nil {
		return nil, fmt.Errorf("parse LOGIN_RATE: %w", err)
	}
	if cfg.LoginBurst, err = positiveInt(getenv("LOGIN_BURST"), cfg.LoginBurst); err != nil {
		return nil, fmt.Errorf("parse LOGIN_BURST: %w", err)
	}

	flags := flag.NewFlagSet("custodia", flag.ContinueOnError)
	flags.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	flags.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "")
	flags.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "")
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	flags.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	flags.StringVar(&cfg.AdminEmail, "admin", cfg.AdminEmail, "")
	flags.DurationVar(&cfg.TokenTTL, "ttl", cfg.TokenTTL, "")
	flags.StringVar(&cfg.LogFile, "log", cfg.LogFile, "")
	flags.StringVar(&cfg.LogFile, "l", cfg.LogFile, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}

// listenAddr accepts either a bare port or a host:port.
func listenAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func parseTTL(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}

func positiveInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
