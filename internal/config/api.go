package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment       string
	Addr              string
	DatabasePath      string
	AllowlistPath     string
	ModelPath         string
	ZScoreThreshold   float64
	MinProfileSamples int
	MaxProfileSamples int
	SessionFeedBuffer int
	DBBusyRetries     int
	DBBusyBackoff     time.Duration
	ShutdownTimeout   time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:       GetString("APP_ENV", "development"),
		Addr:              GetString("API_ADDR", ":8080"),
		DatabasePath:      GetString("SQLITE_PATH", "typeid.db"),
		AllowlistPath:     GetString("MODEL_ALLOWLIST_PATH", "model_users.txt"),
		ModelPath:         GetString("MODEL_PATH", "model.json"),
		ZScoreThreshold:   GetFloat("ZSCORE_THRESHOLD", 1.5),
		MinProfileSamples: GetInt("MIN_PROFILE_SAMPLES", 3),
		MaxProfileSamples: GetInt("MAX_PROFILE_SAMPLES", 50),
		SessionFeedBuffer: GetInt("WS_SESSION_BUFFER", 100),
		DBBusyRetries:     GetInt("DB_BUSY_RETRIES", 5),
		DBBusyBackoff:     time.Duration(GetInt("DB_BUSY_BACKOFF_MS", 10)) * time.Millisecond,
		ShutdownTimeout:   time.Duration(GetInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}
