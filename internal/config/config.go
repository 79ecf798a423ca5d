package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the relay's runtime settings, loaded from the environment
// (plus an optional .env file for local development).
type Config struct {
	// CRM source.
	CRMBaseURL    string
	CRMAPIKey     string
	CRMLocationID string

	// Outbound delivery.
	ImportEmail string
	SenderEmail string
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	NATSURL     string

	// Mapping.
	ProfileName string
	ProfileDir  string

	// Dedup. Empty DedupDBPath selects the non-durable in-memory store.
	DedupDBPath string

	// Lifecycle.
	ExportPath    string
	ExportCron    string
	RunOnStart    bool
	RelayPort     string
	EmailSubject  string
	EmailBodyText string
}

// Load reads configuration, preferring real environment variables over the
// .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	return Config{
		CRMBaseURL:    getEnv("GHL_API_BASE_URL", "https://rest.gohighlevel.com"),
		CRMAPIKey:     os.Getenv("GHL_API_KEY"),
		CRMLocationID: os.Getenv("GHL_LOCATION_ID"),

		ImportEmail: os.Getenv("DRIVECENTRIC_IMPORT_EMAIL"),
		SenderEmail: os.Getenv("SENDER_EMAIL"),
		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    os.Getenv("SMTP_PORT"),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		NATSURL:     os.Getenv("NATS_URL"),

		ProfileName: getEnv("MAPPING_PROFILE", "ghl-v1"),
		ProfileDir:  os.Getenv("PROFILE_DIR"),

		DedupDBPath: os.Getenv("DEDUP_DB_PATH"),

		ExportPath:    getEnv("EXPORT_PATH", "lead_export.xml"),
		ExportCron:    os.Getenv("EXPORT_CRON"),
		RunOnStart:    getEnv("RUN_EXPORT_ON_START", "false") == "true",
		RelayPort:     getEnv("RELAY_PORT", "8080"),
		EmailSubject:  getEnv("EMAIL_SUBJECT", "New Leads from GHL"),
		EmailBodyText: getEnv("EMAIL_BODY", "New leads in ADF XML format attached."),
	}
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
