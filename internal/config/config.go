// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config gathers every environment-driven setting in one place so main can
// load once and inject explicitly.
type Config struct {
	Port string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Messaging gateway (Twilio-style WhatsApp API).
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string

	// Shared secret the periodic trigger must present in X-Cron-Secret.
	CronSecret string

	// Base URL for per-guest RSVP links embedded in messages.
	RSVPBaseURL string

	// Pause between consecutive gateway submissions inside one batch.
	// Submitting too fast risks throttling or suspension by the gateway.
	SendDelay time.Duration

	// Max due batches claimed per orchestrator invocation.
	DispatchBatchLimit int
}

func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBName:     os.Getenv("DB_NAME"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		TwilioBaseURL:    getenv("TWILIO_BASE_URL", "https://api.twilio.com"),

		CronSecret: os.Getenv("CRON_SECRET"),

		RSVPBaseURL: getenv("RSVP_BASE_URL", "https://wedding-us.app"),

		SendDelay:          time.Duration(getenvInt("SEND_DELAY_MS", 1000)) * time.Millisecond,
		DispatchBatchLimit: getenvInt("DISPATCH_BATCH_LIMIT", 5),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
