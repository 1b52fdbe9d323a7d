// Package registry maintains the authoritative set of monitored channels:
// the curated defaults plus every channel subscribers added themselves.
package registry

import (
	"fmt"
	"sync"

	"news-bot/models"
	"news-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// ChannelResolver resolves a channel ID to live platform metadata. Satisfied
// by *discordgo.Session.
type ChannelResolver interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Registry is the id-to-metadata table consulted on every inbound message.
// Rebuild replaces the whole table atomically; lookups never see a partial
// state.
type Registry struct {
	mu    sync.RWMutex
	table map[string]models.ChannelInfo
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{table: make(map[string]models.ChannelInfo)}
}

// Rebuild recomputes the monitored set from the curated defaults and the
// user-added channel IDs, resolving each through the platform. Channels that
// fail to resolve are logged and skipped. An error is returned only when the
// combined set is non-empty yet nothing resolved.
func (r *Registry) Rebuild(resolver ChannelResolver, defaults []models.DefaultChannel, userChannels []string) error {
	type entry struct {
		name      string
		userAdded bool
	}
	union := make(map[string]entry)
	for _, c := range defaults {
		union[c.ID] = entry{name: c.Name}
	}
	for _, id := range userChannels {
		// A user-added channel that is also a default stays a default.
		if _, ok := union[id]; !ok {
			union[id] = entry{userAdded: true}
		}
	}

	table := make(map[string]models.ChannelInfo, len(union))
	for id, e := range union {
		ch, err := resolver.Channel(id)
		if err != nil {
			utils.Warn("registry", "resolve", fmt.Sprintf("skipping channel %s: %v", id, err))
			continue
		}
		title := ch.Name
		if title == "" {
			title = e.name
		}
		table[id] = models.ChannelInfo{
			ID:        id,
			GuildID:   ch.GuildID,
			Title:     title,
			Username:  e.name,
			UserAdded: e.userAdded,
		}
	}

	if len(union) > 0 && len(table) == 0 {
		return fmt.Errorf("none of the %d configured channels resolved", len(union))
	}

	r.mu.Lock()
	r.table = table
	r.mu.Unlock()

	utils.Info("registry", "rebuild", fmt.Sprintf("monitoring %d of %d configured channels", len(table), len(union)))
	return nil
}

// Lookup returns the metadata for a monitored channel. ok is false for
// channels outside the monitored set.
func (r *Registry) Lookup(channelID string) (models.ChannelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.table[channelID]
	return info, ok
}

// IDs returns the IDs of all monitored channels.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.table))
	for id := range r.table {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of monitored channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.table)
}
