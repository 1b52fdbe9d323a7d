package handlers

import (
	"strings"

	"news-bot/bot"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate returns the top-level interaction dispatcher.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			switch i.ApplicationCommandData().Name {
			case "topics":
				HandleTopics(b, s, i)
			case "channels":
				HandleChannels(b, s, i)
			case "search":
				HandleSearch(b, s, i)
			case "cancelsearch":
				HandleCancelSearch(b, s, i)
			case "feed":
				HandleFeed(b, s, i)
			}
		case discordgo.InteractionMessageComponent:
			customID := i.MessageComponentData().CustomID
			if strings.HasPrefix(customID, "unsub:") {
				HandleUnsubscribe(b, s, i, strings.TrimPrefix(customID, "unsub:"))
			}
		}
	}
}

// interactionUserID returns the invoking user's ID for both guild and DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
