package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/pyquiz/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Explain asks the model why the recorded answer of a question is correct.
// It is used when the question page carried no explanation.
func (c *Client) Explain(ctx context.Context, q model.QuestionRecord) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildExplainPrompt(q)},
			{Role: openai.ChatMessageRoleUser, Content: "Explain the correct answer."},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM explanation", "question", q.Question, "chars", len(text))
	if text == "" {
		return "", fmt.Errorf("LLM returned an empty explanation")
	}
	return text, nil
}

func buildExplainPrompt(q model.QuestionRecord) string {
	var sb strings.Builder
	sb.WriteString("You are a Python tutor. A student just answered this multiple-choice question:\n\n")
	sb.WriteString("QUESTION: " + q.Question + "\n\n")
	sb.WriteString("OPTIONS:\n")
	for i, opt := range q.Options {
		letter, ok := model.LetterAt(i)
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "%s. %s\n", letter, opt)
	}
	sb.WriteString("\nCORRECT ANSWER: " + string(q.Answer))
	if idx := q.Answer.Index(); idx >= 0 && idx < len(q.Options) {
		sb.WriteString(" (" + q.Options[idx] + ")")
	}
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString("- Explain in at most three sentences why the correct answer is right.\n")
	sb.WriteString("- Plain text only, no markdown.\n")
	return sb.String()
}
