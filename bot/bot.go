package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"news-bot/classifier"
	"news-bot/command"
	"news-bot/config"
	"news-bot/database"
	"news-bot/dedup"
	"news-bot/models"
	"news-bot/notifier"
	"news-bot/pipeline"
	"news-bot/registry"
	"news-bot/search"
	"news-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the whole pipeline: session, store, registry, listener,
// notifier and search sessions.
type Bot struct {
	Session  *discordgo.Session
	Config   models.PipelineConfig
	Store    *database.Store
	Registry *registry.Registry
	Listener *pipeline.Listener
	Notifier *notifier.Notifier
	Searches *search.Manager

	defaults []models.DefaultChannel
}

// NewBot creates and wires a new Bot instance.
func NewBot() (*Bot, error) {
	config.LoadConfig()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	cfg, err := config.Pipeline()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	defaults, err := config.DefaultChannels()
	if err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "data/posts.db"
	}
	store, err := database.InitDB(dbPath)
	if err != nil {
		return nil, err
	}

	tokens := classifier.NewTokenSource(
		cfg.ClassifierAuthURL,
		cfg.ClassifierClientID,
		cfg.ClassifierSecret,
		cfg.ClassifierScope,
		cfg.TokenMargin,
	)
	cls := classifier.New(cfg.ClassifierChatURL, tokens, classifier.Options{
		Attempts:   cfg.ClassifyAttempts,
		RetryDelay: cfg.ClassifyRetryDelay,
		Pacing:     cfg.ClassifyPacing,
		Timeout:    cfg.ClassifyTimeout,
		Model:      cfg.ClassifierModel,
		Fallback:   cfg.FallbackTopic,
	})

	reg := registry.New()
	notify := notifier.New(dg, store, cfg.NotifyPacing)
	listener := pipeline.NewListener(reg, dedup.NewCache(cfg.DedupCapacity), store, cls, notify, cfg.FallbackTopic, 256)

	return &Bot{
		Session:  dg,
		Config:   cfg,
		Store:    store,
		Registry: reg,
		Listener: listener,
		Notifier: notify,
		Searches: search.NewManager(),
		defaults: defaults,
	}, nil
}

// RebuildRegistry recomputes the monitored channel set from the configured
// defaults and every subscriber's added channels. Called at startup and after
// each channel add or remove.
func (b *Bot) RebuildRegistry() error {
	userChannels, err := b.Store.UserChannels()
	if err != nil {
		return fmt.Errorf("failed to load user channels: %w", err)
	}
	return b.Registry.Rebuild(b.Session, b.defaults, userChannels)
}

// MonitoredChannels returns the metadata of every monitored channel, used by
// the search command.
func (b *Bot) MonitoredChannels() []models.ChannelInfo {
	ids := b.Registry.IDs()
	channels := make([]models.ChannelInfo, 0, len(ids))
	for _, id := range ids {
		if info, ok := b.Registry.Lookup(id); ok {
			channels = append(channels, info)
		}
	}
	return channels
}

// Start opens the session, registers handlers and slash commands, builds the
// channel registry and starts the schedulers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	utils.InitLogger(b.Session)

	// The startup registry build is the one place a resolution failure is
	// fatal: a pipeline watching nothing is misconfigured.
	if err := b.RebuildRegistry(); err != nil {
		b.Session.Close()
		return fmt.Errorf("startup registry build failed: %w", err)
	}

	for _, def := range command.GetCommandDefinitions() {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			log.Printf("Cannot create '%v' command: %v", def.Name, err)
		}
	}

	b.Listener.Start()
	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts the pipeline down. The session closes first so no
// new events arrive while the listener drains.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	b.Listener.Close()
	if b.Store != nil {
		b.Store.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot)) {
	bot, err := NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
