package registry

import (
	"fmt"
	"testing"

	"news-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	channels map[string]*discordgo.Channel
	calls    []string
}

func (f *fakeResolver) Channel(id string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.calls = append(f.calls, id)
	ch, ok := f.channels[id]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", id)
	}
	return ch, nil
}

func TestRebuildUnionAndProvenance(t *testing.T) {
	resolver := &fakeResolver{channels: map[string]*discordgo.Channel{
		"c1": {ID: "c1", GuildID: "g1", Name: "announcements"},
		"c2": {ID: "c2", GuildID: "g1", Name: "community"},
	}}

	r := New()
	defaults := []models.DefaultChannel{{ID: "c1", Name: "main"}}
	// c1 appears both as a default and as user-added; the union holds it once
	// and its provenance stays default.
	err := r.Rebuild(resolver, defaults, []string{"c1", "c2"})
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	assert.Len(t, resolver.calls, 2, "each channel in the union is resolved once")

	info, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.False(t, info.UserAdded)
	assert.Equal(t, "announcements", info.Title)
	assert.Equal(t, "g1", info.GuildID)

	info, ok = r.Lookup("c2")
	require.True(t, ok)
	assert.True(t, info.UserAdded)

	_, ok = r.Lookup("c3")
	assert.False(t, ok)
}

func TestRebuildSkipsUnresolvableChannels(t *testing.T) {
	resolver := &fakeResolver{channels: map[string]*discordgo.Channel{
		"c1": {ID: "c1", Name: "announcements"},
	}}

	r := New()
	err := r.Rebuild(resolver, []models.DefaultChannel{{ID: "c1"}, {ID: "gone"}}, nil)
	require.NoError(t, err, "a partially resolved set is still usable")
	assert.Equal(t, 1, r.Len())

	_, ok := r.Lookup("gone")
	assert.False(t, ok)
}

func TestRebuildFailsWhenNothingResolves(t *testing.T) {
	resolver := &fakeResolver{channels: map[string]*discordgo.Channel{}}

	r := New()
	err := r.Rebuild(resolver, []models.DefaultChannel{{ID: "c1"}}, nil)
	assert.Error(t, err)

	// An empty configured set is not an error.
	err = r.Rebuild(resolver, nil, nil)
	assert.NoError(t, err)
}
