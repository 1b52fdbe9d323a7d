package bot

import (
	"log"

	"github.com/robfig/cron/v3"
)

var c *cron.Cron

// startScheduler starts the retention sweep jobs.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()
	_, err := c.AddFunc("@hourly", func() {
		log.Println("Running hourly retention sweep...")
		b.Store.CleanupOldPosts(b.Config.RetentionDays, b.Config.MaxPosts)
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Println("Retention sweep scheduled to run hourly.")

	// Sweep once at startup so a long-stopped instance trims its backlog
	// before new posts arrive.
	go func() {
		log.Println("Performing initial retention sweep on startup...")
		b.Store.CleanupOldPosts(b.Config.RetentionDays, b.Config.MaxPosts)
	}()
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
