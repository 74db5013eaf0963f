package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with values from the environment. A .env file in the
// working directory is loaded first (missing file is fine); explicit
// environment variables win over it because godotenv never overrides.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.EndpointAddr, "STUDYHALL_ADDR")
	setString(&cfg.DatabaseDSN, "STUDYHALL_DATABASE_DSN")
	setDurationEnv(&cfg.SessionTTL, "STUDYHALL_SESSION_TTL")
	setDurationEnv(&cfg.OnlineWindow, "STUDYHALL_ONLINE_WINDOW")
	setString(&cfg.S3RootUser, "STUDYHALL_S3_USER")
	setString(&cfg.S3RootPassword, "STUDYHALL_S3_PASSWORD")
	setString(&cfg.S3Bucket, "STUDYHALL_S3_BUCKET")
	setString(&cfg.S3Region, "STUDYHALL_S3_REGION")
	setString(&cfg.S3BaseEndpoint, "STUDYHALL_S3_ENDPOINT")
	setString(&cfg.ParserAddr, "STUDYHALL_PARSER_ADDR")
	setString(&cfg.ExplainerAddr, "STUDYHALL_EXPLAINER_ADDR")
	setString(&cfg.SendGridKey, "SENDGRID_API_KEY")
	setString(&cfg.EmailFrom, "STUDYHALL_EMAIL_FROM")
	setString(&cfg.LogLevel, "STUDYHALL_LOG_LEVEL")
	setString(&cfg.LogFormat, "STUDYHALL_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDurationEnv(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
