package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/studyhall/studyhall/internal/flagx"
	"github.com/studyhall/studyhall/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "3s" or
// as integer nanoseconds. Zero values are ignored so a partial file only
// overrides what it names.
type JSONConfig struct {
	ServerAddr            string         `json:"server_addr"`
	DataDir               string         `json:"data_dir"`
	PingInterval          timex.Duration `json:"ping_interval"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	RosterInterval        timex.Duration `json:"roster_interval"`
	EventsInterval        timex.Duration `json:"events_interval"`
	ConversationsInterval timex.Duration `json:"conversations_interval"`
	MessagesInterval      timex.Duration `json:"messages_interval"`
	NotificationsInterval timex.Duration `json:"notifications_interval"`
	ReportsInterval       timex.Duration `json:"reports_interval"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
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
	if jc.ServerAddr != "" {
		cfg.ServerAddr = jc.ServerAddr
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	setDuration(&cfg.PingInterval, jc.PingInterval)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.RosterInterval, jc.RosterInterval)
	setDuration(&cfg.EventsInterval, jc.EventsInterval)
	setDuration(&cfg.ConversationsInterval, jc.ConversationsInterval)
	setDuration(&cfg.MessagesInterval, jc.MessagesInterval)
	setDuration(&cfg.NotificationsInterval, jc.NotificationsInterval)
	setDuration(&cfg.ReportsInterval, jc.ReportsInterval)
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}

func setDuration(dst *time.Duration, src timex.Duration) {
	if src.Duration != 0 {
		*dst = src.Duration
	}
}
