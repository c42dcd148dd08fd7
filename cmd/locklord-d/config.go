package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultAddr   = "127.0.0.1:8090"
	defaultLogCap = 100
)

type Config struct {
	DBPath    string
	Addr      string
	RedisAddr string
	LogCap    int
	Debug     bool
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "locklord.db")

	dbPath := envOrDefault("LOCKLORD_DB_PATH", defaultDBPath)
	addr := addrFromEnv(defaultAddr)
	redisAddr := os.Getenv("LOCKLORD_REDIS_ADDR")
	logCap := defaultLogCap
	if logCapEnv := os.Getenv("LOCKLORD_LOG_CAP"); logCapEnv != "" {
		parsed, err := strconv.Atoi(logCapEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOCKLORD_LOG_CAP: %w", err)
		}
		logCap = parsed
	}
	debug := os.Getenv("LOCKLORD_DEBUG") == "1" || strings.EqualFold(os.Getenv("LOCKLORD_DEBUG"), "true")

	flagSet := flag.NewFlagSet("locklord-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite database")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagRedis := flagSet.String("redis", redisAddr, "Redis address for the durable journal (empty disables)")
	flagLogCap := flagSet.Int("log-cap", logCap, "in-memory activity log capacity")
	flagDebug := flagSet.Bool("debug", debug, "enable debug routes (wait-edge injection)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	config := Config{
		DBPath:    resolvePath(*flagDB, cwd),
		Addr:      strings.TrimSpace(*flagAddr),
		RedisAddr: strings.TrimSpace(*flagRedis),
		LogCap:    *flagLogCap,
		Debug:     *flagDebug,
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}
	if config.LogCap <= 0 {
		return Config{}, fmt.Errorf("log capacity must be positive, got %d", config.LogCap)
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("LOCKLORD_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("LOCKLORD_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
