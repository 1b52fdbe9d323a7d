// Package search runs cancellable keyword searches over the monitored
// channel set on behalf of individual requesters.
package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"news-bot/models"
	"news-bot/utils"

	"github.com/bwmarrin/discordgo"
)

const fetchBatch = 100

// LinkFilter narrows results by whether they carry a link.
type LinkFilter string

const (
	LinkAny     LinkFilter = "any"
	LinkRequire LinkFilter = "require"
	LinkExclude LinkFilter = "exclude"
)

// Options tunes one search run.
type Options struct {
	Window    int // how many recent messages to inspect per channel
	Limit     int // max results kept per channel
	MinLength int // minimum message length in runes, 0 = no bound
	MaxLength int // maximum message length in runes, 0 = no bound
	Links     LinkFilter
}

// Event is one unit of streamed search output: a per-channel summary
// (Message nil, Total set) followed by that channel's matches newest first.
type Event struct {
	ChannelID string
	GuildID   string
	Title     string
	Total     int
	Message   *discordgo.Message
}

// MessageFetcher reads a window of recent channel messages. Satisfied by
// *discordgo.Session.
type MessageFetcher interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

type session struct {
	cancelled atomic.Bool
}

// Manager tracks at most one active search session per requester.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*session)}
}

// Start runs a search for the requester, streaming results through emit.
// Starting a new search cancels the requester's previous one. The call
// blocks until the search completes or is cancelled; results already
// emitted stand.
func (m *Manager) Start(fetcher MessageFetcher, requesterID, keyword string, opts Options, channels []models.ChannelInfo, emit func(Event)) {
	s := m.open(requesterID)
	defer m.close(requesterID, s)

	if opts.Window <= 0 {
		opts.Window = 200
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Links == "" {
		opts.Links = LinkAny
	}

	type channelMatches struct {
		info    models.ChannelInfo
		matches []*discordgo.Message
	}

	var results []channelMatches
	for _, ch := range channels {
		if s.cancelled.Load() {
			return
		}
		matches, err := m.scan(fetcher, ch.ID, keyword, opts)
		if err != nil {
			utils.Warn("search", "scan", fmt.Sprintf("skipping channel %s: %v", ch.ID, err))
			continue
		}
		if len(matches) > 0 {
			results = append(results, channelMatches{info: ch, matches: matches})
		}
	}

	// Channels with the freshest match come first. Matches are already
	// newest-first within each channel.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].matches[0].Timestamp.After(results[j].matches[0].Timestamp)
	})

	for _, cr := range results {
		if s.cancelled.Load() {
			return
		}
		emit(Event{ChannelID: cr.info.ID, GuildID: cr.info.GuildID, Title: cr.info.Title, Total: len(cr.matches)})
		for _, msg := range cr.matches {
			if s.cancelled.Load() {
				return
			}
			emit(Event{ChannelID: cr.info.ID, GuildID: cr.info.GuildID, Title: cr.info.Title, Message: msg})
		}
	}
}

// Cancel stops the requester's active search, if any, and reports whether
// one was running.
func (m *Manager) Cancel(requesterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[requesterID]
	if !ok {
		return false
	}
	s.cancelled.Store(true)
	return true
}

// Active reports whether the requester has a search in flight.
func (m *Manager) Active(requesterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[requesterID]
	return ok
}

// open registers a fresh session, cancelling any previous one.
func (m *Manager) open(requesterID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[requesterID]; ok {
		old.cancelled.Store(true)
	}
	s := &session{}
	m.sessions[requesterID] = s
	return s
}

// close removes the session unless a newer one replaced it already.
func (m *Manager) close(requesterID string, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[requesterID]; ok && current == s {
		delete(m.sessions, requesterID)
	}
}

// scan fetches up to the window of recent messages from one channel and
// returns the filtered matches newest first, truncated to the per-channel
// limit.
func (m *Manager) scan(fetcher MessageFetcher, channelID, keyword string, opts Options) ([]*discordgo.Message, error) {
	needle := strings.ToLower(keyword)

	var inspected []*discordgo.Message
	beforeID := ""
	for len(inspected) < opts.Window {
		batch := fetchBatch
		if remaining := opts.Window - len(inspected); remaining < batch {
			batch = remaining
		}
		msgs, err := fetcher.ChannelMessages(channelID, batch, beforeID, "", "")
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			break
		}
		inspected = append(inspected, msgs...)
		beforeID = msgs[len(msgs)-1].ID
		if len(msgs) < batch {
			break
		}
	}

	var matches []*discordgo.Message
	for _, msg := range inspected {
		if !matchesFilters(msg.Content, needle, opts) {
			continue
		}
		matches = append(matches, msg)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func matchesFilters(content, needle string, opts Options) bool {
	if !strings.Contains(strings.ToLower(content), needle) {
		return false
	}
	length := len([]rune(content))
	if opts.MinLength > 0 && length < opts.MinLength {
		return false
	}
	if opts.MaxLength > 0 && length > opts.MaxLength {
		return false
	}
	hasLink := strings.Contains(content, "http://") || strings.Contains(content, "https://")
	switch opts.Links {
	case LinkRequire:
		return hasLink
	case LinkExclude:
		return !hasLink
	}
	return true
}
