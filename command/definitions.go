package command

import "github.com/bwmarrin/discordgo"

// TopicsCommand defines the structure for the /topics command.
type TopicsCommand struct{}

// Definition returns the application command definition.
func (c *TopicsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "topics",
		Description: "Manage your topic subscriptions",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "Subscribe to a topic",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "topic",
						Description: "The topic to subscribe to",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "remove",
				Description: "Unsubscribe from a topic",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "topic",
						Description: "The topic to unsubscribe from",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "list",
				Description: "List your topic subscriptions",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

// ChannelsCommand defines the structure for the /channels command.
type ChannelsCommand struct{}

// Definition returns the application command definition.
func (c *ChannelsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "channels",
		Description: "Manage the channels you follow",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "Follow a channel",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Description: "The channel to follow",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Required:    true,
					},
				},
			},
			{
				Name:        "remove",
				Description: "Stop following a channel",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "channel",
						Description: "The channel to stop following",
						Type:        discordgo.ApplicationCommandOptionChannel,
						Required:    true,
					},
				},
			},
			{
				Name:        "list",
				Description: "List the channels being monitored for you",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

// SearchCommand defines the structure for the /search command.
type SearchCommand struct{}

// Definition returns the application command definition.
func (c *SearchCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "search",
		Description: "Search recent posts across the monitored channels",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "keyword",
				Description: "The keyword to search for",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
			{
				Name:        "min_length",
				Description: "Minimum message length",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
			{
				Name:        "max_length",
				Description: "Maximum message length",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
			{
				Name:        "links",
				Description: "Filter by whether messages contain links",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{
						Name:  "Only with links",
						Value: "require",
					},
					{
						Name:  "Only without links",
						Value: "exclude",
					},
				},
			},
		},
	}
}

// CancelSearchCommand defines the structure for the /cancelsearch command.
type CancelSearchCommand struct{}

// Definition returns the application command definition.
func (c *CancelSearchCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "cancelsearch",
		Description: "Cancel your running search",
	}
}

// FeedCommand defines the structure for the /feed command.
type FeedCommand struct{}

// Definition returns the application command definition.
func (c *FeedCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "feed",
		Description: "Show the most recently collected posts",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "limit",
				Description: "How many posts to show (default 5)",
				Type:        discordgo.ApplicationCommandOptionInteger,
				Required:    false,
			},
		},
	}
}
