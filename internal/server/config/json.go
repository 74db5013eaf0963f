package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/studyhall/studyhall/internal/flagx"
	"github.com/studyhall/studyhall/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so files can say "60s" or integer nanoseconds. Zero values
// are ignored so a partial file only overrides what it names.
type JSONConfig struct {
	EndpointAddr       string         `json:"endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	OnlineWindow       timex.Duration `json:"online_window"`
	LoginRatePerMinute int            `json:"login_rate_per_minute"`
	LoginBurst         int            `json:"login_burst"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	PresignExpiry      timex.Duration `json:"presign_expiry"`
	ParserAddr         string         `json:"parser_addr"`
	ExplainerAddr      string         `json:"explainer_addr"`
	SendGridKey        string         `json:"sendgrid_key"`
	EmailFrom          string         `json:"email_from"`
	LogLevel           string         `json:"log_level"`
	LogFormat          string         `json:"log_format"`
}

// parseJSON overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. Missing flag means no JSON is loaded. Read or unmarshal
// errors panic; the caller sees a clear startup failure.
func parseJSON(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JSONConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJSON(cfg, &jc)
}

func applyJSON(cfg *Config, jc *JSONConfig) {
	applyString(&cfg.EndpointAddr, jc.EndpointAddr)
	applyString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	applyDuration(&cfg.SessionTTL, jc.SessionTTL)
	applyDuration(&cfg.OnlineWindow, jc.OnlineWindow)
	if jc.LoginRatePerMinute != 0 {
		cfg.LoginRatePerMinute = jc.LoginRatePerMinute
	}
	if jc.LoginBurst != 0 {
		cfg.LoginBurst = jc.LoginBurst
	}
	applyString(&cfg.S3RootUser, jc.S3RootUser)
	applyString(&cfg.S3RootPassword, jc.S3RootPassword)
	applyString(&cfg.S3Bucket, jc.S3Bucket)
	applyString(&cfg.S3Region, jc.S3Region)
	applyString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	applyDuration(&cfg.PresignExpiry, jc.PresignExpiry)
	applyString(&cfg.ParserAddr, jc.ParserAddr)
	applyString(&cfg.ExplainerAddr, jc.ExplainerAddr)
	applyString(&cfg.SendGridKey, jc.SendGridKey)
	applyString(&cfg.EmailFrom, jc.EmailFrom)
	applyString(&cfg.LogLevel, jc.LogLevel)
	applyString(&cfg.LogFormat, jc.LogFormat)
}

func applyString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func applyDuration(dst *time.Duration, src timex.Duration) {
	if src.Duration != 0 {
		*dst = src.Duration
	}
}
