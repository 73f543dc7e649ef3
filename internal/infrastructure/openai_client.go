package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"zapagent/internal/entities"
)

// FallbackReply is sent whenever generation fails. The upstream channel has
// no way to surface an internal error to the end user, so the pipeline must
// always have some text to deliver.
const FallbackReply = "Desculpe, não consegui processar sua mensagem no momento."

const generateTimeout = 30 * time.Second

// OpenAIClient adapts the chat-completions API to the Generator port.
type OpenAIClient struct {
	client openai.Client
	model  string
	log    *logrus.Logger
}

func NewOpenAIClient(apiKey, model string, log *logrus.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

// Generate builds the system prompt, interleaves recent history oldest first
// and asks for a completion. Any upstream failure degrades to FallbackReply.
func (c *OpenAIClient) Generate(ctx context.Context, userInput, prompt, language, tone string, history []entities.HistoryEntry) string {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	system := fmt.Sprintf("You are a helpful assistant. Respond in %s, using a %s tone.\n\n%s",
		language, strings.ToLower(tone), prompt)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
	}
	for _, h := range history {
		if h.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(h.Content))
		} else {
			messages = append(messages, openai.UserMessage(h.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userInput))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		c.log.WithError(err).Error("AI generation failed, using fallback reply")
		return FallbackReply
	}
	if len(completion.Choices) == 0 {
		c.log.Error("AI generation returned no choices, using fallback reply")
		return FallbackReply
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return FallbackReply
	}
	return reply
}
