package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects which API surface /send and /messages expose.
const (
	ModeBridge = "bridge" // ACP envelope bridge (default)
	ModeChat   = "chat"   // plain chat messages backed by the relay
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string
	Mode string

	// Agent identity announced on /status and in the startup envelope.
	AgentID      string
	AgentType    string
	Capabilities []string

	// Durable message log.
	CommsFile    string
	StoreBackend string // "file" or "sqlite"
	SQLitePath   string
	LogRetention int // envelopes kept, 0 = unlimited

	// Mission annex.
	MissionFile    string
	AnnexRecipient string

	// Relay.
	FrameMode    string // "raw" or "chat"
	MaxSessions  int
	HistoryCap   int
	ReplayCount  int
	SendTimeout  time.Duration
	SessionQueue int
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),
		Mode: getEnv("MODE", ModeBridge),

		AgentID:   getEnv("AGENT_ID", "roo-code"),
		AgentType: getEnv("AGENT_TYPE", "code_assistant"),

		CommsFile:    getEnv("COMMS_FILE", ".agntcy-comms.json"),
		StoreBackend: getEnv("STORE_BACKEND", "file"),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/bridge.db"),
		LogRetention: getEnvInt("LOG_RETENTION", 1000),

		MissionFile: getEnv("MISSION_FILE", ".agntcy-mission"),

		FrameMode:    getEnv("FRAME_MODE", ""),
		MaxSessions:  getEnvInt("MAX_SESSIONS", 256),
		HistoryCap:   getEnvInt("HISTORY_CAP", 100),
		ReplayCount:  getEnvInt("REPLAY_COUNT", 50),
		SendTimeout:  getEnvDuration("SEND_TIMEOUT", 5*time.Second),
		SessionQueue: getEnvInt("SESSION_QUEUE", 32),
	}

	// The annex routes to this bridge's own identity unless overridden.
	cfg.AnnexRecipient = getEnv("ANNEX_RECIPIENT", cfg.AgentID)

	// Chat mode wraps relay frames unless explicitly overridden.
	if cfg.FrameMode == "" {
		if cfg.Mode == ModeChat {
			cfg.FrameMode = "chat"
		} else {
			cfg.FrameMode = "raw"
		}
	}

	for _, entry := range strings.Split(getEnv("CAPABILITIES", "code_analysis,refactoring"), ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			cfg.Capabilities = append(cfg.Capabilities, entry)
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
