// Package notifier fans classified posts out to matching subscribers as
// direct messages.
package notifier

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"news-bot/models"
	"news-bot/utils"

	"github.com/bwmarrin/discordgo"
)

const snippetRunes = 200

// Sender is the subset of the platform session used for direct messages.
type Sender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SubscriberSource lists the current subscribers with their topic and
// channel sets. Satisfied by *database.Store.
type SubscriberSource interface {
	Subscribers() ([]models.Subscriber, error)
}

// Notifier delivers per-subscriber notifications with pacing between sends
// and an in-process blocklist for unreachable recipients.
type Notifier struct {
	sender Sender
	subs   SubscriberSource
	pacing time.Duration

	mu      sync.Mutex
	blocked map[string]struct{}

	sleep func(time.Duration) // test hook
}

// New creates a notifier sending through the given session.
func New(sender Sender, subs SubscriberSource, pacing time.Duration) *Notifier {
	return &Notifier{
		sender:  sender,
		subs:    subs,
		pacing:  pacing,
		blocked: make(map[string]struct{}),
		sleep:   time.Sleep,
	}
}

// Fanout notifies every subscriber the post matches. For default channels a
// subscriber matches on topic intersection only; for user-added channels a
// subscriber also matches by following the channel itself. One recipient's
// failure never affects the others.
func (n *Notifier) Fanout(post models.Post, channel models.ChannelInfo) {
	subs, err := n.subs.Subscribers()
	if err != nil {
		utils.Error("notifier", "fanout", fmt.Sprintf("failed to load subscribers: %v", err))
		return
	}

	sent := false
	for _, sub := range subs {
		matched := intersect(post.Topics, sub.Topics)
		follows := channel.UserAdded && contains(sub.Channels, post.ChannelID)
		if len(matched) == 0 && !follows {
			continue
		}
		if n.isBlocked(sub.UserID) {
			continue
		}

		if sent {
			n.sleep(n.pacing)
		}
		n.notify(sub.UserID, post, channel, matched)
		sent = true
	}
}

// notify delivers one DM. Errors are contained to the recipient.
func (n *Notifier) notify(userID string, post models.Post, channel models.ChannelInfo, matched []string) {
	dm, err := n.sender.UserChannelCreate(userID)
	if err != nil {
		n.handleSendError(userID, err)
		return
	}
	if _, err := n.sender.ChannelMessageSendComplex(dm.ID, buildPayload(post, channel, matched)); err != nil {
		n.handleSendError(userID, err)
	}
}

func (n *Notifier) handleSendError(userID string, err error) {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
		n.block(userID)
		utils.Warn("notifier", "send", fmt.Sprintf("recipient %s is unreachable, blocklisted for this run", userID))
		return
	}
	utils.Error("notifier", "send", fmt.Sprintf("failed to notify %s: %v", userID, err))
}

func (n *Notifier) block(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blocked[userID] = struct{}{}
}

func (n *Notifier) isBlocked(userID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.blocked[userID]
	return ok
}

// buildPayload renders the notification embed. The unsubscribe button carries
// exactly the topics that matched so the handler can remove just those.
func buildPayload(post models.Post, channel models.ChannelInfo, matched []string) *discordgo.MessageSend {
	title := channel.Title
	if title == "" {
		title = post.Channel
	}

	var desc strings.Builder
	if len(matched) > 0 {
		desc.WriteString("Topics: " + strings.Join(matched, ", ") + "\n\n")
	} else {
		desc.WriteString("New post in a channel you follow\n\n")
	}
	desc.WriteString(utils.Truncate(post.Text, snippetRunes))
	if post.Link != "" {
		desc.WriteString("\n\n" + post.Link)
	}

	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: desc.String(),
			Timestamp:   time.Unix(post.Timestamp, 0).Format(time.RFC3339),
		}},
	}

	if len(matched) > 0 {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Unsubscribe",
					Style:    discordgo.SecondaryButton,
					CustomID: "unsub:" + strings.Join(matched, ","),
				},
			}},
		}
	}
	return msg
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
