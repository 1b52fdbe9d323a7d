package handlers

import (
	"news-bot/bot"
	"news-bot/models"

	"github.com/bwmarrin/discordgo"
)

// MessageCreate returns the handler feeding live channel messages into the
// pipeline. The handler only enqueues; the pipeline's consumer goroutine does
// the actual work so events keep their arrival order.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Announcement channels often post through webhooks and bots, so only
		// the bot's own messages are filtered out.
		if m.Author != nil && m.Author.ID == s.State.User.ID {
			return
		}
		b.Listener.Enqueue(models.InboundMessage{
			ChannelID: m.ChannelID,
			MessageID: m.ID,
			Text:      m.Content,
			Timestamp: m.Timestamp.Unix(),
		})
	}
}
