// Package config loads the forwarder's runtime configuration from the
// environment (with optional .env file). Load is re-runnable: the admin
// reload operation calls it again and swaps the new route table in.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken   string
	WebhookURL string
	Port       int

	// Routing and authorization
	Routes         map[int64][]int64
	AllowedSources map[int64]struct{}
	AdminChatID    int64
	AdminIDs       map[int64]struct{}

	// Pipeline policy
	ForwardUncaptionedMedia bool
	DispatchTimeout         time.Duration

	// Collaborators
	ArchiveDSN    string
	OCRURL        string
	TranscribeURL string

	// Flood guard
	FloodPerMinute float64
	FloodBurst     int

	// Admin API
	JWTSecret        string
	AdminAPIPassword string
}

// Load reads the .env file (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine in production; env vars are set directly there.
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:                os.Getenv("BOT_TOKEN"),
		WebhookURL:              os.Getenv("WEBHOOK_URL"),
		Port:                    envInt("PORT", 8080),
		ForwardUncaptionedMedia: envBool("FORWARD_UNCAPTIONED_MEDIA", true),
		DispatchTimeout:         envDuration("DISPATCH_TIMEOUT", 30*time.Second),
		ArchiveDSN:              os.Getenv("ARCHIVE_DSN"),
		OCRURL:                  os.Getenv("OCR_URL"),
		TranscribeURL:           os.Getenv("TRANSCRIBE_URL"),
		FloodPerMinute:          envFloat("FLOOD_PER_MINUTE", 20),
		FloodBurst:              envInt("FLOOD_BURST", 5),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		AdminAPIPassword:        os.Getenv("ADMIN_API_PASSWORD"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	routes, err := ParseRoutes(os.Getenv("ROUTES"))
	if err != nil {
		return nil, fmt.Errorf("ROUTES: %w", err)
	}
	cfg.Routes = routes

	sources, err := ParseIDSet(os.Getenv("SOURCE_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("SOURCE_CHAT_IDS: %w", err)
	}
	// Sources with a configured route are trusted implicitly; the explicit
	// list extends it for sources that are routed later at runtime.
	for source := range routes {
		sources[source] = struct{}{}
	}
	cfg.AllowedSources = sources

	admins, err := ParseIDSet(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	cfg.AdminIDs = admins

	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = id
	}

	return cfg, nil
}

// ParseRoutes parses a "source:dest[,source:dest...]" spec. A source may
// repeat with different destinations to fan out. Self-routes and malformed
// pairs are rejected.
func ParseRoutes(spec string) (map[int64][]int64, error) {
	routes := make(map[int64][]int64)
	if strings.TrimSpace(spec) == "" {
		return routes, nil
	}

	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed route %q, want source:dest", pair)
		}
		source, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("route %q: bad source: %w", pair, err)
		}
		dest, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("route %q: bad destination: %w", pair, err)
		}
		if source == dest {
			return nil, fmt.Errorf("route %q: source cannot route to itself", pair)
		}
		if !contains(routes[source], dest) {
			routes[source] = append(routes[source], dest)
		}
	}
	return routes, nil
}

// ParseIDSet parses a comma-separated chat ID list into a set.
func ParseIDSet(raw string) (map[int64]struct{}, error) {
	set := make(map[int64]struct{})
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chat id %q: %w", field, err)
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func contains(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
