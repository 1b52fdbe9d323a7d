package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"news-bot/models"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// Store wraps the SQLite handle for the post archive and the subscriber
// directory.
type Store struct {
	db *sql.DB
}

// InitDB opens (creating if needed) the SQLite database at dbPath and
// ensures all tables exist.
func InitDB(dbPath string) (*Store, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS posts (
        db_id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id TEXT NOT NULL,
        message_id TEXT NOT NULL,
        channel TEXT,
        channel_username TEXT,
        text TEXT,
        link TEXT,
        topics TEXT,
        tags TEXT,
        timestamp INTEGER,
        UNIQUE(channel_id, message_id)
    );`,
		`CREATE TABLE IF NOT EXISTS subscribers (
        user_id TEXT PRIMARY KEY,
        created_at INTEGER
    );`,
		`CREATE TABLE IF NOT EXISTS subscriber_topics (
        user_id TEXT NOT NULL,
        topic TEXT NOT NULL,
        UNIQUE(user_id, topic)
    );`,
		`CREATE TABLE IF NOT EXISTS subscriber_channels (
        user_id TEXT NOT NULL,
        channel_id TEXT NOT NULL,
        UNIQUE(user_id, channel_id)
    );`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SavePost stores a classified post. Duplicate (channel_id, message_id) pairs
// are ignored; the return value reports whether a new row was written. This is
// the durable second line of defense behind the in-memory dedup cache.
func (s *Store) SavePost(post models.Post) (bool, error) {
	query := `
    INSERT OR IGNORE INTO posts (
        channel_id, message_id, channel, channel_username, text, link, topics, tags, timestamp
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement for saving post: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		post.ChannelID,
		post.MessageID,
		post.Channel,
		post.ChannelUsername,
		post.Text,
		post.Link,
		strings.Join(post.Topics, ","),
		strings.Join(post.Tags, ","),
		post.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("failed to execute statement for saving post %s: %w", post.MessageID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for post %s: %w", post.MessageID, err)
	}
	return rows > 0, nil
}

// CountPosts returns the number of stored posts.
func (s *Store) CountPosts() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// RecentPosts returns stored posts newest first. channelID narrows the result
// to one channel when non-empty.
func (s *Store) RecentPosts(limit, offset int, channelID string) ([]models.Post, error) {
	query := "SELECT db_id, channel_id, message_id, channel, channel_username, text, link, topics, tags, timestamp FROM posts"
	args := []any{}
	if channelID != "" {
		query += " WHERE channel_id = ?"
		args = append(args, channelID)
	}
	query += " ORDER BY timestamp DESC, db_id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var topics, tags string
		if err := rows.Scan(&p.DBID, &p.ChannelID, &p.MessageID, &p.Channel, &p.ChannelUsername, &p.Text, &p.Link, &topics, &tags, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		p.Topics = splitList(topics)
		p.Tags = splitList(tags)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
