// Package config collects all externally supplied settings into one
// explicit value that is passed into each component constructor.
package config

import (
	"os"
	"time"
)

// Config holds every setting the pipeline needs. It is built once at
// startup from environment variables (optionally loaded from a .env
// file by the entry point) and passed around by value.
type Config struct {
	// Mailbox
	IMAPAddr  string
	EmailUser string
	EmailPass string
	Lookback  time.Duration

	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Google Calendar
	CalendarID      string
	CredentialsFile string

	// Optional iCloud CalDAV mirror
	ICloudUsername string
	ICloudPassword string
	ICloudCalendar string

	// Event defaults
	EventTimeZone string
	EventLocation string

	LogLevel string
}

// Load reads the configuration from the environment. Presence of
// required values is checked at the point of use, so a partially
// configured environment still allows a dry run.
func Load() Config {
	return Config{
		IMAPAddr:  envOrDefault("IMAP_ADDR", "imap.gmail.com:993"),
		EmailUser: os.Getenv("EMAIL_USER"),
		EmailPass: os.Getenv("EMAIL_PASS"),
		Lookback:  envOrDefaultDuration("LOOKBACK", 24*time.Hour),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		CalendarID:      os.Getenv("GOOGLE_CALENDAR_ID"),
		CredentialsFile: envOrDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		ICloudUsername: os.Getenv("ICLOUD_USERNAME"),
		ICloudPassword: os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"),
		ICloudCalendar: os.Getenv("ICLOUD_CALENDAR_NAME"),

		EventTimeZone: envOrDefault("EVENT_TIMEZONE", "America/Sao_Paulo"),
		EventLocation: envOrDefault("EVENT_LOCATION", "Remoto"),

		LogLevel: envOrDefault("LOG_LEVEL", "info"),
	}
}

// HasMailCredentials reports whether the mailbox can be polled at all.
func (c Config) HasMailCredentials() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

// HasICloud reports whether the optional CalDAV mirror is configured.
func (c Config) HasICloud() bool {
	return c.ICloudUsername != "" && c.ICloudPassword != "" && c.ICloudCalendar != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
