package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"news-bot/models"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources: the .env file,
// config.yaml, and JSON files under ./config/.
// Load order:
// 1. .env file (environment variables)
// 2. config.yaml (base configuration)
// 3. config/channels.json (curated channel list, merged into the main config)
// Environment variables override same-named settings from the files.
func LoadConfig() {
	// 1. Load environment variables from .env; a missing file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	// 2. Read the base configuration file (config.yaml).
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No base config file (config.yaml) found, continuing with environment variables and merged configs only.")
		} else {
			panic(fmt.Errorf("fatal error parsing base config file: %w", err))
		}
	}

	// 3. Merge the curated channel list (config/channels.json).
	viper.SetConfigName("channels")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("No channel list file (config/channels.json) found, skipping merge.")
		} else {
			panic(fmt.Errorf("fatal error merging channel list file: %w", err))
		}
	}
}

// DefaultChannels decodes the curated channel list merged from config/channels.json.
func DefaultChannels() ([]models.DefaultChannel, error) {
	var channels []models.DefaultChannel
	if err := mapstructure.Decode(viper.Get("channels"), &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channel list: %w", err)
	}
	return channels, nil
}

// Pipeline returns the validated pipeline configuration snapshot with
// defaults applied for every tunable.
func Pipeline() (models.PipelineConfig, error) {
	viper.SetDefault("classifier.attempts", 3)
	viper.SetDefault("classifier.retryDelay", 3*time.Second)
	viper.SetDefault("classifier.pacing", 1*time.Second)
	viper.SetDefault("classifier.timeout", 5*time.Second)
	viper.SetDefault("classifier.tokenMargin", 60*time.Second)
	viper.SetDefault("classifier.fallbackTopic", "other")
	viper.SetDefault("pipeline.dedupCapacity", 1000)
	viper.SetDefault("retention.days", 10)
	viper.SetDefault("retention.maxPosts", 1000)
	viper.SetDefault("notify.pacing", 500*time.Millisecond)
	viper.SetDefault("search.window", 200)
	viper.SetDefault("search.channelLimit", 10)

	cfg := models.PipelineConfig{
		ClassifierAuthURL:  viper.GetString("classifier.authUrl"),
		ClassifierChatURL:  viper.GetString("classifier.chatUrl"),
		ClassifierClientID: viper.GetString("classifier.clientId"),
		ClassifierSecret:   viper.GetString("classifier.clientSecret"),
		ClassifierScope:    viper.GetString("classifier.scope"),
		ClassifierModel:    viper.GetString("classifier.model"),
		ClassifyAttempts:   viper.GetInt("classifier.attempts"),
		ClassifyRetryDelay: viper.GetDuration("classifier.retryDelay"),
		ClassifyPacing:     viper.GetDuration("classifier.pacing"),
		ClassifyTimeout:    viper.GetDuration("classifier.timeout"),
		TokenMargin:        viper.GetDuration("classifier.tokenMargin"),
		FallbackTopic:      viper.GetString("classifier.fallbackTopic"),
		DedupCapacity:      viper.GetInt("pipeline.dedupCapacity"),
		RetentionDays:      viper.GetInt("retention.days"),
		MaxPosts:           viper.GetInt("retention.maxPosts"),
		NotifyPacing:       viper.GetDuration("notify.pacing"),
		SearchWindow:       viper.GetInt("search.window"),
		SearchChannelLimit: viper.GetInt("search.channelLimit"),
	}

	if cfg.ClassifyAttempts < 1 {
		return cfg, fmt.Errorf("classifier.attempts must be at least 1, got %d", cfg.ClassifyAttempts)
	}
	if cfg.DedupCapacity < 1 {
		return cfg, fmt.Errorf("pipeline.dedupCapacity must be at least 1, got %d", cfg.DedupCapacity)
	}
	if cfg.ClassifierAuthURL == "" || cfg.ClassifierChatURL == "" {
		return cfg, fmt.Errorf("classifier.authUrl and classifier.chatUrl must be configured")
	}
	return cfg, nil
}
