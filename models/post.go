package models

import "fmt"

// Post represents a classified channel post as stored in the database.
type Post struct {
	DBID            int64  `db:"db_id"`
	ChannelID       string `db:"channel_id"`
	MessageID       string `db:"message_id"` // Unique together with ChannelID
	Channel         string `db:"channel"`    // Channel display title at classification time
	ChannelUsername string `db:"channel_username"`
	Text            string `db:"text"`
	Link            string `db:"link"`
	Topics          []string
	Tags            []string
	Timestamp       int64 `db:"timestamp"` // Unix timestamp of the source message
}

// InboundMessage is a single message event delivered by the channel transport.
type InboundMessage struct {
	ChannelID string
	MessageID string
	Text      string
	Timestamp int64
}

// ChannelInfo is the resolved metadata for one monitored channel.
type ChannelInfo struct {
	ID        string
	GuildID   string
	Title     string
	Username  string
	UserAdded bool // false for system-default channels
}

// Subscriber is one user with their topic interests and followed channels.
type Subscriber struct {
	UserID   string
	Topics   []string
	Channels []string // user-added channel IDs
}

// MessageLink builds the permalink for a message in a guild channel.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
