package reply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
)

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("reply generator returned empty content")

// ErrNoUserMessage is returned when the history does not end with a user turn.
var ErrNoUserMessage = errors.New("conversation does not end with a user message")

const systemPrompt = "You are a minimalist AI assistant. Keep answers short, friendly and clear."

const defaultHistoryLimit = 10

// Service produces assistant replies by running the conversation through an
// eino chain: prompt template followed by a chat model.
type Service struct {
	historyLimit int
	chain        compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the reply chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, historyLimit int) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &Service{
		historyLimit: historyLimit,
		chain:        runnable,
	}, nil
}

// Reply answers the last user message in history.
func (s *Service) Reply(ctx context.Context, history []chat.Message) (string, error) {
	if len(history) == 0 || history[len(history)-1].Sender != chat.SenderUser {
		return "", ErrNoUserMessage
	}

	last := history[len(history)-1]
	input := map[string]any{
		"system":  systemPrompt,
		"history": s.buildHistoryMessages(history[:len(history)-1]),
		"query":   last.Content,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", ErrEmptyReply
	}

	log.Printf("[reply] generated reply to message=%s length=%d", last.ID, len(content))
	return content, nil
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > s.historyLimit {
		startIdx = len(messages) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
