package reply

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// excerptPlaceholder is replaced with the first words of the user message.
const excerptPlaceholder = "{excerpt}"

// DefaultTemplates is the fixed set of canned replies.
var DefaultTemplates = []string{
	"I understand what you're saying. How can I help further?",
	"That's an interesting perspective. Let me think about that...",
	"I'd love to explore that topic more with you.",
	"Thanks for sharing that with me. What else is on your mind?",
	`I see you mentioned "` + excerptPlaceholder + `..." That's fascinating.`,
	"I'm designed to assist with a wide range of topics. What specific information are you looking for?",
	"I appreciate your question. Let me provide some thoughts on that.",
	"That's a great question! I'd be happy to share what I know about this subject.",
}

// CannedModel is a model.BaseChatModel that answers with a random canned
// template after a simulated latency.
type CannedModel struct {
	templates []string
	latency   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

var _ model.BaseChatModel = (*CannedModel)(nil)

// NewCannedModel builds a CannedModel. Empty templates fall back to DefaultTemplates.
func NewCannedModel(templates []string, latency time.Duration, seed uint64) *CannedModel {
	if len(templates) == 0 {
		templates = DefaultTemplates
	}
	return &CannedModel{
		templates: append([]string(nil), templates...),
		latency:   latency,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate waits for the simulated latency and returns one template, rendered
// against the last user message in input.
func (m *CannedModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	idx := m.rng.IntN(len(m.templates))
	m.mu.Unlock()

	content := render(m.templates[idx], lastUserContent(input))
	return schema.AssistantMessage(content, nil), nil
}

// Stream delivers the generated reply as a single chunk.
func (m *CannedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Candidates lists every reply the default templates can produce for userText.
func Candidates(userText string) []string {
	out := make([]string, 0, len(DefaultTemplates))
	for _, tmpl := range DefaultTemplates {
		out = append(out, render(tmpl, userText))
	}
	return out
}

func render(template, userText string) string {
	if !strings.Contains(template, excerptPlaceholder) {
		return template
	}
	return strings.ReplaceAll(template, excerptPlaceholder, excerpt(userText, 3))
}

// excerpt keeps the first n space separated words.
func excerpt(text string, n int) string {
	words := strings.Split(text, " ")
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func lastUserContent(input []*schema.Message) string {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i] != nil && input[i].Role == schema.User {
			return input[i].Content
		}
	}
	return ""
}
