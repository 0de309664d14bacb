// internal/workers/analytics/record-assignment-outcome/config.go
package recordassignmentoutcome

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig(index string) *Config {
	if index == "" {
		index = "assignment-outcomes"
	}
	return &Config{
		Timeout: 10 * time.Second,
		Index:   index,
	}
}
