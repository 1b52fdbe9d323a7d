package notifier

import (
	"fmt"
	"testing"
	"time"

	"news-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent       map[string][]*discordgo.MessageSend // recipient -> payloads
	failFor    map[string]error
	dmFailures map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		sent:       make(map[string][]*discordgo.MessageSend),
		failFor:    make(map[string]error),
		dmFailures: make(map[string]error),
	}
}

func (f *fakeSender) UserChannelCreate(userID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err, ok := f.dmFailures[userID]; ok {
		return nil, err
	}
	return &discordgo.Channel{ID: "dm-" + userID}, nil
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	userID := channelID[len("dm-"):]
	if err, ok := f.failFor[userID]; ok {
		return nil, err
	}
	f.sent[userID] = append(f.sent[userID], data)
	return &discordgo.Message{}, nil
}

type fakeSubs struct{ subs []models.Subscriber }

func (f *fakeSubs) Subscribers() ([]models.Subscriber, error) { return f.subs, nil }

func newTestNotifier(sender *fakeSender, subs []models.Subscriber) *Notifier {
	n := New(sender, &fakeSubs{subs: subs}, time.Millisecond)
	n.sleep = func(time.Duration) {}
	return n
}

func TestDefaultChannelMatchesOnTopicsOnly(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai"}},
		{UserID: "s2", Topics: []string{"sports"}, Channels: []string{"c1"}},
	})

	post := models.Post{ChannelID: "c1", Topics: []string{"ai", "crypto"}, Text: "news"}
	n.Fanout(post, models.ChannelInfo{ID: "c1", UserAdded: false})

	assert.Len(t, sender.sent["s1"], 1)
	assert.Empty(t, sender.sent["s2"], "following a default channel is not a match criterion")
}

func TestUserAddedChannelMatchesByMembershipToo(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai"}},
		{UserID: "s2", Topics: []string{"sports"}, Channels: []string{"c1"}},
		{UserID: "s3", Topics: []string{"sports"}},
	})

	post := models.Post{ChannelID: "c1", Topics: []string{"ai"}, Text: "news"}
	n.Fanout(post, models.ChannelInfo{ID: "c1", UserAdded: true})

	assert.Len(t, sender.sent["s1"], 1, "topic match")
	assert.Len(t, sender.sent["s2"], 1, "channel membership match")
	assert.Empty(t, sender.sent["s3"])
}

func TestUnsubscribeButtonCarriesMatchedTopics(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai", "gadgets"}},
	})

	post := models.Post{ChannelID: "c1", Topics: []string{"ai", "crypto"}, Text: "news"}
	n.Fanout(post, models.ChannelInfo{ID: "c1"})

	require.Len(t, sender.sent["s1"], 1)
	msg := sender.sent["s1"][0]
	require.Len(t, msg.Components, 1)
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	button, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "unsub:ai", button.CustomID, "only the topics that matched, not the post's full set")
}

func TestFailureIsolation(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["s1"] = fmt.Errorf("network hiccup")
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai"}},
		{UserID: "s2", Topics: []string{"ai"}},
	})

	post := models.Post{ChannelID: "c1", Topics: []string{"ai"}, Text: "news"}
	n.Fanout(post, models.ChannelInfo{ID: "c1"})

	assert.Empty(t, sender.sent["s1"])
	assert.Len(t, sender.sent["s2"], 1, "one recipient's failure must not stop the fanout")
	assert.False(t, n.isBlocked("s1"), "transient errors do not blocklist")
}

func TestUnreachableRecipientIsBlocklisted(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["s1"] = &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeCannotSendMessagesToThisUser},
	}
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai"}},
	})

	post := models.Post{ChannelID: "c1", Topics: []string{"ai"}, Text: "news"}
	n.Fanout(post, models.ChannelInfo{ID: "c1"})
	assert.True(t, n.isBlocked("s1"))

	// Future fanouts skip the blocklisted recipient without a send attempt.
	delete(sender.failFor, "s1")
	n.Fanout(post, models.ChannelInfo{ID: "c1"})
	assert.Empty(t, sender.sent["s1"])
}

func TestSnippetTruncation(t *testing.T) {
	sender := newFakeSender()
	n := newTestNotifier(sender, []models.Subscriber{
		{UserID: "s1", Topics: []string{"ai"}},
	})

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	post := models.Post{ChannelID: "c1", Topics: []string{"ai"}, Text: string(long), Link: "https://example.com/p/1"}
	n.Fanout(post, models.ChannelInfo{ID: "c1", Title: "Announcements"})

	require.Len(t, sender.sent["s1"], 1)
	desc := sender.sent["s1"][0].Embeds[0].Description
	assert.NotContains(t, desc, string(long), "body is truncated to a snippet")
	assert.Contains(t, desc, "https://example.com/p/1")
	assert.Contains(t, desc, "…")
}
