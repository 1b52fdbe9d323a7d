package handlers

import (
	"fmt"
	"log"
	"strings"

	"news-bot/bot"
	"news-bot/models"
	"news-bot/search"
	"news-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// respondEphemeral sends an immediate ephemeral reply to an interaction.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// HandleTopics handles the logic for the /topics command.
func HandleTopics(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "add":
		topic := strings.ToLower(strings.TrimSpace(sub.Options[0].StringValue()))
		if topic == "" {
			respondEphemeral(s, i, "Error: topic must not be empty.")
			return
		}
		if err := b.Store.AddTopic(userID, topic); err != nil {
			log.Printf("Error adding topic %q for %s: %v", topic, userID, err)
			respondEphemeral(s, i, "Error: could not save your subscription.")
			return
		}
		respondEphemeral(s, i, fmt.Sprintf("Subscribed to **%s**.", topic))

	case "remove":
		topic := strings.ToLower(strings.TrimSpace(sub.Options[0].StringValue()))
		if err := b.Store.RemoveTopic(userID, topic); err != nil {
			log.Printf("Error removing topic %q for %s: %v", topic, userID, err)
			respondEphemeral(s, i, "Error: could not update your subscription.")
			return
		}
		respondEphemeral(s, i, fmt.Sprintf("Unsubscribed from **%s**.", topic))

	case "list":
		topics, err := b.Store.Topics(userID)
		if err != nil {
			log.Printf("Error listing topics for %s: %v", userID, err)
			respondEphemeral(s, i, "Error: could not load your subscriptions.")
			return
		}
		if len(topics) == 0 {
			respondEphemeral(s, i, "You are not subscribed to any topics yet. Use `/topics add`.")
			return
		}
		respondEphemeral(s, i, "Your topics: "+strings.Join(topics, ", "))
	}
}

// HandleChannels handles the logic for the /channels command. Channel adds
// and removes rebuild the monitored set immediately.
func HandleChannels(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "add":
		channel := sub.Options[0].ChannelValue(s)
		if channel == nil {
			respondEphemeral(s, i, "Error: unknown channel.")
			return
		}
		if err := b.Store.AddChannel(userID, channel.ID); err != nil {
			log.Printf("Error adding channel %s for %s: %v", channel.ID, userID, err)
			respondEphemeral(s, i, "Error: could not save the channel.")
			return
		}
		if err := b.RebuildRegistry(); err != nil {
			utils.Warn("handlers", "channels", fmt.Sprintf("registry rebuild after add failed: %v", err))
		}
		respondEphemeral(s, i, fmt.Sprintf("Now following **%s**.", channel.Name))

	case "remove":
		channel := sub.Options[0].ChannelValue(s)
		if channel == nil {
			respondEphemeral(s, i, "Error: unknown channel.")
			return
		}
		if err := b.Store.RemoveChannel(userID, channel.ID); err != nil {
			log.Printf("Error removing channel %s for %s: %v", channel.ID, userID, err)
			respondEphemeral(s, i, "Error: could not update the channel list.")
			return
		}
		if err := b.RebuildRegistry(); err != nil {
			utils.Warn("handlers", "channels", fmt.Sprintf("registry rebuild after remove failed: %v", err))
		}
		respondEphemeral(s, i, fmt.Sprintf("Stopped following **%s**.", channel.Name))

	case "list":
		channels := b.MonitoredChannels()
		if len(channels) == 0 {
			respondEphemeral(s, i, "No channels are being monitored right now.")
			return
		}
		var lines []string
		for _, ch := range channels {
			kind := "default"
			if ch.UserAdded {
				kind = "user-added"
			}
			lines = append(lines, fmt.Sprintf("- **%s** (%s)", ch.Title, kind))
		}
		respondEphemeral(s, i, "Monitored channels:\n"+strings.Join(lines, "\n"))
	}
}

// HandleSearch handles the logic for the /search command. The search runs in
// a goroutine and streams results back as followup messages.
func HandleSearch(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	keyword := ""
	if opt, ok := optionMap["keyword"]; ok {
		keyword = strings.TrimSpace(opt.StringValue())
	}
	if keyword == "" {
		respondEphemeral(s, i, "Error: a keyword is required.")
		return
	}

	opts := search.Options{
		Window: b.Config.SearchWindow,
		Limit:  b.Config.SearchChannelLimit,
	}
	if opt, ok := optionMap["min_length"]; ok {
		opts.MinLength = int(opt.IntValue())
	}
	if opt, ok := optionMap["max_length"]; ok {
		opts.MaxLength = int(opt.IntValue())
	}
	if opt, ok := optionMap["links"]; ok {
		opts.Links = search.LinkFilter(opt.StringValue())
	}

	respondEphemeral(s, i, fmt.Sprintf("Searching for **%s**... Use `/cancelsearch` to stop.", keyword))

	channels := b.MonitoredChannels()

	go func() {
		found := false
		b.Searches.Start(s, userID, keyword, opts, channels, func(e search.Event) {
			found = true
			var content string
			if e.Message == nil {
				content = fmt.Sprintf("**%s**: %d match(es)", e.Title, e.Total)
			} else {
				content = fmt.Sprintf("%s\n%s", utils.Truncate(e.Message.Content, 200),
					models.MessageLink(e.GuildID, e.ChannelID, e.Message.ID))
			}
			if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			}); err != nil {
				log.Printf("Error sending search result to %s: %v", userID, err)
			}
		})
		if !found {
			s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Content: fmt.Sprintf("No matches for **%s**.", keyword),
				Flags:   discordgo.MessageFlagsEphemeral,
			})
		}
	}()
}

// HandleCancelSearch handles the logic for the /cancelsearch command.
func HandleCancelSearch(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}
	if b.Searches.Cancel(userID) {
		respondEphemeral(s, i, "Search cancelled.")
	} else {
		respondEphemeral(s, i, "You have no search running.")
	}
}

// HandleFeed handles the logic for the /feed command.
func HandleFeed(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	limit := 5
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Name == "limit" {
		limit = int(options[0].IntValue())
		if limit < 1 || limit > 20 {
			limit = 5
		}
	}

	posts, err := b.Store.RecentPosts(limit, 0, "")
	if err != nil {
		log.Printf("Error loading feed: %v", err)
		respondEphemeral(s, i, "Error: could not load the feed.")
		return
	}
	if len(posts) == 0 {
		respondEphemeral(s, i, "No posts collected yet.")
		return
	}

	var lines []string
	for _, p := range posts {
		lines = append(lines, fmt.Sprintf("**%s** [%s]\n%s\n%s",
			p.Channel, strings.Join(p.Topics, ", "), utils.Truncate(p.Text, 150), p.Link))
	}
	respondEphemeral(s, i, strings.Join(lines, "\n\n"))
}

// HandleUnsubscribe handles the unsubscribe button attached to notification
// messages. topicsArg carries exactly the topics the notification matched.
func HandleUnsubscribe(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, topicsArg string) {
	userID := interactionUserID(i)
	if userID == "" {
		return
	}

	var removed []string
	for _, topic := range strings.Split(topicsArg, ",") {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if err := b.Store.RemoveTopic(userID, topic); err != nil {
			log.Printf("Error unsubscribing %s from %q: %v", userID, topic, err)
			continue
		}
		removed = append(removed, topic)
	}

	if len(removed) == 0 {
		respondEphemeral(s, i, "Error: could not update your subscriptions.")
		return
	}
	respondEphemeral(s, i, "Unsubscribed from: "+strings.Join(removed, ", "))
}
