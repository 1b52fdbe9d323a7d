// Package pipeline wires live channel events through deduplication,
// classification, persistence and subscriber fan-out.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"news-bot/classifier"
	"news-bot/dedup"
	"news-bot/models"
	"news-bot/utils"
)

// TopicClassifier assigns topics from the known vocabulary to a post.
type TopicClassifier interface {
	Classify(ctx context.Context, text string, known []string) []string
}

// PostStore persists classified posts and exposes the topic vocabulary.
type PostStore interface {
	SavePost(post models.Post) (bool, error)
	AllTopics() ([]string, error)
}

// ChannelLookup answers whether a channel is monitored.
type ChannelLookup interface {
	Lookup(channelID string) (models.ChannelInfo, bool)
}

// Fanout delivers a stored post to matching subscribers.
type Fanout interface {
	Fanout(post models.Post, channel models.ChannelInfo)
}

// Listener processes inbound channel messages strictly in arrival order:
// platform handlers only enqueue, a single consumer goroutine does the work,
// so no two events are ever in flight together.
type Listener struct {
	registry   ChannelLookup
	seen       *dedup.Cache
	store      PostStore
	classifier TopicClassifier
	notifier   Fanout
	sentinel   string

	mu      sync.RWMutex
	closed  bool
	started bool
	queue   chan models.InboundMessage
	done    chan struct{}
	once    sync.Once
}

// NewListener assembles the pipeline. queueSize bounds the inbound buffer.
func NewListener(reg ChannelLookup, seen *dedup.Cache, store PostStore, cls TopicClassifier, notify Fanout, sentinel string, queueSize int) *Listener {
	if queueSize < 1 {
		queueSize = 64
	}
	return &Listener{
		registry:   reg,
		seen:       seen,
		store:      store,
		classifier: cls,
		notifier:   notify,
		sentinel:   sentinel,
		queue:      make(chan models.InboundMessage, queueSize),
		done:       make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (l *Listener) Start() {
	l.started = true
	go func() {
		defer close(l.done)
		for msg := range l.queue {
			l.Handle(msg)
		}
	}()
}

// Enqueue hands a message to the consumer without blocking the platform
// event loop. A full queue drops the message with a warning. Safe to call
// during and after Close: late platform events are dropped, never a panic.
func (l *Listener) Enqueue(msg models.InboundMessage) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		log.Printf("[pipeline] listener closed, dropping message %s from channel %s", msg.MessageID, msg.ChannelID)
		return
	}
	select {
	case l.queue <- msg:
	default:
		utils.Warn("pipeline", "enqueue", fmt.Sprintf("queue full, dropping message %s from channel %s", msg.MessageID, msg.ChannelID))
	}
}

// Close stops accepting messages and waits for the consumer to drain. The
// closed flag is flipped under the write lock, so no Enqueue can be sending
// when the queue channel closes.
func (l *Listener) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.queue)
		if l.started {
			<-l.done
		}
	})
}

// Handle runs one message through the full pipeline. Exported so tests can
// drive the pipeline synchronously.
func (l *Listener) Handle(msg models.InboundMessage) {
	info, ok := l.registry.Lookup(msg.ChannelID)
	if !ok {
		return
	}
	if msg.Text == "" {
		return
	}

	// The dedup mark happens before any fallible work so a failed event can
	// never be classified or delivered twice.
	if l.seen.SeenOrMark(msg.ChannelID, msg.MessageID) {
		log.Printf("[pipeline] duplicate delivery of %s/%s suppressed", msg.ChannelID, msg.MessageID)
		return
	}

	known, err := l.store.AllTopics()
	if err != nil {
		utils.Error("pipeline", "vocabulary", fmt.Sprintf("failed to load topic vocabulary for %s/%s: %v", msg.ChannelID, msg.MessageID, err))
		return
	}
	if len(known) == 0 {
		known = []string{l.sentinel}
	}

	topics := l.classifier.Classify(context.Background(), msg.Text, known)
	if classifier.FallbackOnly(topics, l.sentinel) {
		log.Printf("[pipeline] message %s/%s matched no topics, discarded", msg.ChannelID, msg.MessageID)
		return
	}

	post := models.Post{
		ChannelID:       msg.ChannelID,
		MessageID:       msg.MessageID,
		Channel:         info.Title,
		ChannelUsername: info.Username,
		Text:            msg.Text,
		Link:            models.MessageLink(info.GuildID, msg.ChannelID, msg.MessageID),
		Topics:          topics,
		Timestamp:       msg.Timestamp,
	}

	written, err := l.store.SavePost(post)
	if err != nil {
		utils.Error("pipeline", "persist", fmt.Sprintf("failed to save post %s/%s: %v", msg.ChannelID, msg.MessageID, err))
		return
	}
	if !written {
		// The database caught a duplicate the in-memory cache had already
		// evicted. Treat it like a seen message.
		return
	}

	l.notifier.Fanout(post, info)
}
