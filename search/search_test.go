package search

import (
	"fmt"
	"testing"
	"time"

	"news-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	messages map[string][]*discordgo.Message // channelID -> newest first
}

func (f *fakeFetcher) ChannelMessages(channelID string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	msgs := f.messages[channelID]
	start := 0
	if beforeID != "" {
		for i, m := range msgs {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	if start >= len(msgs) {
		return nil, nil
	}
	return msgs[start:end], nil
}

func msg(id, content string, at time.Time) *discordgo.Message {
	return &discordgo.Message{ID: id, Content: content, Timestamp: at}
}

func collect(events *[]Event) func(Event) {
	return func(e Event) { *events = append(*events, e) }
}

func TestSearchFiltersAndSorts(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{messages: map[string][]*discordgo.Message{
		"c1": {
			msg("5", "GoLang release notes", base),
			msg("4", "nothing relevant", base.Add(-time.Minute)),
			msg("3", "golang tip: https://example.com", base.Add(-2*time.Minute)),
			msg("2", "why golang", base.Add(-3*time.Minute)),
		},
	}}

	m := NewManager()
	var events []Event
	m.Start(fetcher, "u1", "golang", Options{Window: 100, Limit: 10},
		[]models.ChannelInfo{{ID: "c1", Title: "Dev"}}, collect(&events))

	require.Len(t, events, 4, "one summary plus three matches")
	assert.Nil(t, events[0].Message)
	assert.Equal(t, 3, events[0].Total)
	assert.Equal(t, "Dev", events[0].Title)
	assert.Equal(t, "5", events[1].Message.ID, "matches stream newest first")
	assert.Equal(t, "3", events[2].Message.ID)
	assert.Equal(t, "2", events[3].Message.ID)
	assert.False(t, m.Active("u1"), "session is removed on completion")
}

func TestSearchLengthAndLinkFilters(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{messages: map[string][]*discordgo.Message{
		"c1": {
			msg("3", "go", base),
			msg("2", "go conference https://example.com/conf", base.Add(-time.Minute)),
			msg("1", "a long go post without any links in it", base.Add(-2*time.Minute)),
		},
	}}

	m := NewManager()
	var events []Event
	m.Start(fetcher, "u1", "go", Options{MinLength: 5, Links: LinkRequire},
		[]models.ChannelInfo{{ID: "c1"}}, collect(&events))

	require.Len(t, events, 2)
	assert.Equal(t, "2", events[1].Message.ID, "only the long message carrying a link survives")
}

func TestSearchPerChannelLimitAndChannelOrder(t *testing.T) {
	base := time.Now()
	older := make([]*discordgo.Message, 0, 30)
	for i := 0; i < 30; i++ {
		older = append(older, msg(fmt.Sprintf("a%d", i), "go update", base.Add(-time.Hour-time.Duration(i)*time.Minute)))
	}
	fetcher := &fakeFetcher{messages: map[string][]*discordgo.Message{
		"stale": older,
		"fresh": {msg("f1", "go release", base)},
	}}

	m := NewManager()
	var events []Event
	m.Start(fetcher, "u1", "go", Options{Limit: 5},
		[]models.ChannelInfo{{ID: "stale", Title: "Stale"}, {ID: "fresh", Title: "Fresh"}},
		collect(&events))

	// fresh first (its newest match is newer), then stale truncated to 5.
	require.Len(t, events, 1+1+1+5)
	assert.Equal(t, "fresh", events[0].ChannelID)
	assert.Equal(t, "stale", events[2].ChannelID)
	assert.Equal(t, 5, events[2].Total)
}

func TestSearchWindowBoundsFetch(t *testing.T) {
	base := time.Now()
	var msgs []*discordgo.Message
	for i := 0; i < 300; i++ {
		msgs = append(msgs, msg(fmt.Sprintf("m%d", i), "filler", base.Add(-time.Duration(i)*time.Second)))
	}
	// The only matching message sits beyond the inspection window.
	msgs[250].Content = "golang hidden"

	fetcher := &fakeFetcher{messages: map[string][]*discordgo.Message{"c1": msgs}}

	m := NewManager()
	var events []Event
	m.Start(fetcher, "u1", "golang", Options{Window: 200},
		[]models.ChannelInfo{{ID: "c1"}}, collect(&events))

	assert.Empty(t, events, "messages beyond the window are never inspected")
}

func TestCancelStopsEmission(t *testing.T) {
	base := time.Now()
	var msgs []*discordgo.Message
	for i := 0; i < 20; i++ {
		msgs = append(msgs, msg(fmt.Sprintf("m%d", i), "go news", base.Add(-time.Duration(i)*time.Second)))
	}
	fetcher := &fakeFetcher{messages: map[string][]*discordgo.Message{"c1": msgs}}

	m := NewManager()
	var events []Event
	m.Start(fetcher, "u1", "go", Options{Limit: 20}, []models.ChannelInfo{{ID: "c1"}}, func(e Event) {
		events = append(events, e)
		if len(events) == 3 {
			// Requester cancels mid-stream; already-emitted results stand.
			assert.True(t, m.Cancel("u1"))
		}
	})

	assert.Len(t, events, 3, "emission stops at the next cancellation check")
	assert.False(t, m.Active("u1"))
	assert.False(t, m.Cancel("u1"), "no session left to cancel")
}

func TestNewSearchCancelsPrevious(t *testing.T) {
	m := NewManager()
	old := m.open("u1")
	fresh := m.open("u1")
	assert.True(t, old.cancelled.Load(), "starting a new search cancels the previous session")
	assert.False(t, fresh.cancelled.Load())

	// Closing the old session must not drop the fresh one.
	m.close("u1", old)
	assert.True(t, m.Active("u1"))
	m.close("u1", fresh)
	assert.False(t, m.Active("u1"))
}
