package models

import "time"

// PipelineConfig is the validated snapshot of every pipeline tunable,
// populated field by field from viper in config.Pipeline() with defaults
// applied.
type PipelineConfig struct {
	// Classifier API
	ClassifierAuthURL  string
	ClassifierChatURL  string
	ClassifierClientID string
	ClassifierSecret   string
	ClassifierScope    string
	ClassifierModel    string

	// Classifier retry budget
	ClassifyAttempts   int
	ClassifyRetryDelay time.Duration
	ClassifyPacing     time.Duration
	ClassifyTimeout    time.Duration
	TokenMargin        time.Duration
	FallbackTopic      string

	// Dedup cache
	DedupCapacity int

	// Retention
	RetentionDays int
	MaxPosts      int

	// Notifications
	NotifyPacing time.Duration

	// Search
	SearchWindow       int
	SearchChannelLimit int
}

// DefaultChannel is one entry of the curated channel list in config/channels.json.
type DefaultChannel struct {
	ID   string `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
}
