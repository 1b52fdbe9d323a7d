package database

import (
	"fmt"
	"time"

	"news-bot/models"
)

// EnsureSubscriber creates the subscriber row if it does not exist yet.
func (s *Store) EnsureSubscriber(userID string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO subscribers (user_id, created_at) VALUES (?, ?)",
		userID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure subscriber %s: %w", userID, err)
	}
	return nil
}

// AddTopic subscribes a user to a topic. Adding an already-subscribed topic
// is a no-op.
func (s *Store) AddTopic(userID, topic string) error {
	if err := s.EnsureSubscriber(userID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO subscriber_topics (user_id, topic) VALUES (?, ?)",
		userID, topic,
	)
	if err != nil {
		return fmt.Errorf("failed to add topic %s for %s: %w", topic, userID, err)
	}
	return nil
}

// RemoveTopic unsubscribes a user from a topic.
func (s *Store) RemoveTopic(userID, topic string) error {
	_, err := s.db.Exec(
		"DELETE FROM subscriber_topics WHERE user_id = ? AND topic = ?",
		userID, topic,
	)
	if err != nil {
		return fmt.Errorf("failed to remove topic %s for %s: %w", topic, userID, err)
	}
	return nil
}

// Topics returns the topics one user is subscribed to.
func (s *Store) Topics(userID string) ([]string, error) {
	return s.queryStrings(
		"SELECT topic FROM subscriber_topics WHERE user_id = ? ORDER BY topic", userID)
}

// AddChannel records a user-added channel for a subscriber.
func (s *Store) AddChannel(userID, channelID string) error {
	if err := s.EnsureSubscriber(userID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO subscriber_channels (user_id, channel_id) VALUES (?, ?)",
		userID, channelID,
	)
	if err != nil {
		return fmt.Errorf("failed to add channel %s for %s: %w", channelID, userID, err)
	}
	return nil
}

// RemoveChannel drops a user-added channel from a subscriber.
func (s *Store) RemoveChannel(userID, channelID string) error {
	_, err := s.db.Exec(
		"DELETE FROM subscriber_channels WHERE user_id = ? AND channel_id = ?",
		userID, channelID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove channel %s for %s: %w", channelID, userID, err)
	}
	return nil
}

// Channels returns the channel IDs one user has added.
func (s *Store) Channels(userID string) ([]string, error) {
	return s.queryStrings(
		"SELECT channel_id FROM subscriber_channels WHERE user_id = ? ORDER BY channel_id", userID)
}

// AllTopics returns the distinct union of every subscriber's topics. This is
// the classification vocabulary.
func (s *Store) AllTopics() ([]string, error) {
	return s.queryStrings("SELECT DISTINCT topic FROM subscriber_topics ORDER BY topic")
}

// UserChannels returns the distinct union of every subscriber's user-added
// channel IDs.
func (s *Store) UserChannels() ([]string, error) {
	return s.queryStrings("SELECT DISTINCT channel_id FROM subscriber_channels ORDER BY channel_id")
}

// Subscribers returns every subscriber with their topic and channel sets.
func (s *Store) Subscribers() ([]models.Subscriber, error) {
	ids, err := s.queryStrings("SELECT user_id FROM subscribers ORDER BY user_id")
	if err != nil {
		return nil, err
	}

	subs := make([]models.Subscriber, 0, len(ids))
	for _, id := range ids {
		topics, err := s.Topics(id)
		if err != nil {
			return nil, err
		}
		channels, err := s.Channels(id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, models.Subscriber{UserID: id, Topics: topics, Channels: channels})
	}
	return subs, nil
}

func (s *Store) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
