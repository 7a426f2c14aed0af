package utils

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

// loadEnvFile loads variables from an optional .env file without overriding
// anything already set in the environment.
func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	loadEnvFile()

	cfg := AuthConfig{
		JWTSecret:   envOr("TRAILMARK_JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:   envOr("TRAILMARK_JWT_ISSUER", "trailmark"),
		JWTDuration: 24 * time.Hour,
	}

	if ttl := os.Getenv("TRAILMARK_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			cfg.JWTDuration = time.Duration(hours) * time.Hour
		}
	}
	return cfg
}

type GatewayConfig struct {
	Addr           string
	UpstreamURL    string
	CensusAPIKey   string
	AllowedOrigins []string
	Production     bool
}

func LoadGatewayConfig() GatewayConfig {
	loadEnvFile()

	origins := strings.Split(envOr("TRAILMARK_ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return GatewayConfig{
		Addr:           envOr("TRAILMARK_GATEWAY_ADDR", ":8080"),
		UpstreamURL:    envOr("TRAILMARK_UPSTREAM_URL", "http://localhost:8090"),
		CensusAPIKey:   os.Getenv("TRAILMARK_CENSUS_API_KEY"),
		AllowedOrigins: origins,
		Production:     envOr("TRAILMARK_ENV", "development") == "production",
	}
}

type BackendConfig struct {
	Addr     string
	SyncAddr string
}

func LoadBackendConfig() BackendConfig {
	loadEnvFile()
	return BackendConfig{
		Addr:     envOr("TRAILMARK_BACKEND_ADDR", ":8090"),
		SyncAddr: envOr("TRAILMARK_BACKEND_SYNC_ADDR", ":7070"),
	}
}
