// Package classifier assigns topics to channel posts by calling an external
// chat-completion API behind an OAuth2 client-credentials gate.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"news-bot/utils"
)

// Options tunes the classification retry budget. Zero values fall back to the
// production defaults.
type Options struct {
	Attempts   int           // total attempts per post
	RetryDelay time.Duration // spacing between failed attempts
	Pacing     time.Duration // sleep before every call, spreads API load
	Timeout    time.Duration // per-call deadline
	Model      string
	Fallback   string // sentinel topic for unclassifiable posts
}

// Classifier calls the chat-completion endpoint with a fixed prompt and maps
// replies onto the known topic vocabulary.
type Classifier struct {
	chatURL string
	tokens  *TokenSource
	opts    Options
	client  *http.Client

	sleep func(time.Duration) // test hook
}

// New creates a classifier bound to a chat endpoint and token source.
func New(chatURL string, tokens *TokenSource, opts Options) *Classifier {
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Fallback == "" {
		opts.Fallback = "other"
	}
	return &Classifier{
		chatURL: chatURL,
		tokens:  tokens,
		opts:    opts,
		client:  &http.Client{},
		sleep:   time.Sleep,
	}
}

// Fallback returns the sentinel topic assigned to unclassifiable posts.
func (c *Classifier) Fallback() string {
	return c.opts.Fallback
}

// FallbackOnly reports whether topics is exactly the single sentinel value.
func FallbackOnly(topics []string, sentinel string) bool {
	return len(topics) == 1 && topics[0] == sentinel
}

// Classify maps text onto the known topic vocabulary. It always returns a
// non-empty topic list: when no known topic applies, or when the retry budget
// is exhausted, the result is the fallback sentinel alone. An exhausted
// budget is a definite outcome, not an error.
func (c *Classifier) Classify(ctx context.Context, text string, known []string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, t := range known {
		knownSet[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	prompt := buildPrompt(text, known, c.opts.Fallback)

	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		// Pacing before every call keeps request spacing even across posts.
		c.sleep(c.opts.Pacing)

		reply, err := c.complete(ctx, prompt)
		if err != nil {
			log.Printf("[classifier] attempt %d/%d failed: %v", attempt, c.opts.Attempts, err)
			if attempt < c.opts.Attempts {
				c.sleep(c.opts.RetryDelay)
			}
			continue
		}

		topics := c.filter(reply, knownSet)
		if len(topics) == 0 {
			return []string{c.opts.Fallback}
		}
		return topics
	}

	utils.Warn("classifier", "classify", fmt.Sprintf("retry budget exhausted after %d attempts, assigning %q", c.opts.Attempts, c.opts.Fallback))
	return []string{c.opts.Fallback}
}

// filter parses the comma-separated model reply, normalizes each entry and
// keeps only topics from the known vocabulary, first occurrence wins. A
// sentinel mixed in with real topics is dropped; the sentinel survives only
// when it stands alone.
func (c *Classifier) filter(reply string, known map[string]struct{}) []string {
	var topics []string
	taken := make(map[string]struct{})
	sawFallback := false
	for _, part := range strings.Split(reply, ",") {
		topic := strings.ToLower(strings.TrimSpace(part))
		if topic == "" {
			continue
		}
		if topic == c.opts.Fallback {
			sawFallback = true
			continue
		}
		if _, dup := taken[topic]; dup {
			continue
		}
		if _, ok := known[topic]; ok {
			taken[topic] = struct{}{}
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 && sawFallback {
		return []string{c.opts.Fallback}
	}
	return topics
}

// complete performs one chat-completion call under the per-call deadline.
func (c *Classifier) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	token, err := c.tokens.Token(callCtx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.opts.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return payload.Choices[0].Message.Content, nil
}

// buildPrompt renders the fixed classification prompt. The worked examples
// anchor brand and product names to their broader topics so the model does
// not answer with terms outside the vocabulary.
func buildPrompt(text string, known []string, sentinel string) string {
	const maxRunes = 500
	runes := []rune(text)
	if len(runes) > maxRunes {
		text = string(runes[:maxRunes])
	}

	var b strings.Builder
	b.WriteString("You are a news post classifier. Assign the post below to topics from this list: ")
	b.WriteString(strings.Join(known, ", "))
	b.WriteString(".\n")
	b.WriteString("Answer with a comma-separated list of matching topics only, no explanations.\n")
	b.WriteString("Treat product and brand names as their broader topic: a post about ChatGPT or Midjourney belongs to AI, ")
	b.WriteString("a post about bitcoin or ethereum belongs to crypto, a post about the iPhone belongs to gadgets.\n")
	b.WriteString("If none of the topics apply, answer with the single word: " + sentinel + ".\n\n")
	b.WriteString("Post:\n")
	b.WriteString(text)
	return b.String()
}
