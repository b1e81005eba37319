package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/certserver.db"

	// BaseURL is the public origin claim URLs and QR codes point at.
	BaseURL string

	// Claim window
	ClaimWindowSeconds int // how long claims stay open after end-event

	// Closure sweeper
	SweepIntervalSeconds int // 0 = disabled
}

func FromEnv() Config {
	addr := getenvDefault("CERTSERVER_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("CERTSERVER_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("CERTSERVER_DB_PATH", "./data/certserver.db")
	baseURL := strings.TrimRight(getenvDefault("CERTSERVER_BASE_URL", "http://localhost:8080"), "/")

	windowSeconds := getenvInt("CERTSERVER_CLAIM_WINDOW_SECONDS", 600)
	sweepInterval := getenvInt("CERTSERVER_SWEEP_INTERVAL_SECONDS", 60)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,
		BaseURL:  baseURL,

		ClaimWindowSeconds:   windowSeconds,
		SweepIntervalSeconds: sweepInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
