// internal/workers/notification/send-assignment-notification/config.go
package sendassignmentnotification

import (
	"time"

	"routing-workers/internal/common/config"
)

type Config struct {
	Timeout           time.Duration
	EmailEnabled      bool
	FromEmail         string
	SMSEnabled        bool
	PriorityThreshold string
}

func LoadConfig(cfg config.NotificationConfig) *Config {
	threshold := cfg.SMS.PriorityThreshold
	if threshold == "" {
		threshold = "high"
	}
	return &Config{
		Timeout:           15 * time.Second,
		EmailEnabled:      cfg.Email.Enabled,
		FromEmail:         cfg.Email.FromEmail,
		SMSEnabled:        cfg.SMS.Enabled,
		PriorityThreshold: threshold,
	}
}
