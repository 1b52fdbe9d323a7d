package database

import (
	"fmt"
	"log"
	"time"

	"news-bot/utils"
)

// CleanupOldPosts enforces the retention policy in two ordered passes:
// first posts older than horizonDays are deleted, then, if the table still
// holds more than maxPosts rows, the oldest rows beyond the cap are deleted.
// Errors are logged; the sweep never takes the process down.
func (s *Store) CleanupOldPosts(horizonDays, maxPosts int) {
	log.Println("Starting cleanup of old posts...")

	cutoff := time.Now().AddDate(0, 0, -horizonDays).Unix()

	res, err := s.db.Exec("DELETE FROM posts WHERE timestamp < ?", cutoff)
	if err != nil {
		log.Printf("Error deleting posts older than %d days: %v", horizonDays, err)
		return
	}
	aged, err := res.RowsAffected()
	if err != nil {
		log.Printf("Error getting rows affected for age pass: %v", err)
		return
	}

	// Count cap pass runs on whatever the age pass left behind.
	count, err := s.CountPosts()
	if err != nil {
		log.Printf("Error counting posts after age pass: %v", err)
		return
	}

	var capped int64
	if count > maxPosts {
		res, err := s.db.Exec(`
        DELETE FROM posts WHERE db_id IN (
            SELECT db_id FROM posts ORDER BY timestamp ASC, db_id ASC LIMIT ?
        )`, count-maxPosts)
		if err != nil {
			log.Printf("Error deleting posts beyond the cap of %d: %v", maxPosts, err)
			return
		}
		capped, err = res.RowsAffected()
		if err != nil {
			log.Printf("Error getting rows affected for cap pass: %v", err)
			return
		}
	}

	log.Printf("Successfully cleaned up %d aged posts and %d posts beyond the cap", aged, capped)
	utils.Info("CleanupOldPosts", "Cleanup",
		fmt.Sprintf("Removed %d posts older than %d days and %d posts beyond the cap of %d", aged, horizonDays, capped, maxPosts))
}
