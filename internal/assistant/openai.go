package assistant

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Himansh-u2000/QPlan/internal/config"
)

const promptText = `You are a chatbot for QPlan. Use the following information to answer the user's question about upcoming events and resource availability.

Question: {{.Question}}

Event Details: {{.EventDetails}}

Resource Status: {{.ResourceStatus}}

Answer: `

var prompt = template.Must(template.New("assistant_prompt").Parse(promptText))

// OpenAIService calls an OpenAI-compatible chat completions endpoint.
type OpenAIService struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIService(opts config.AssistantOptions) *OpenAIService {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIService{
		client:  openai.NewClient(reqOpts...),
		model:   opts.Model,
		timeout: opts.Timeout,
	}
}

// RenderPrompt fills the prompt template with q.
func RenderPrompt(q Query) (string, error) {
	var buf bytes.Buffer
	if err := prompt.Execute(&buf, q); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *OpenAIService) Answer(ctx context.Context, q Query) (string, error) {
	text, err := RenderPrompt(q)
	if err != nil {
		return "", fmt.Errorf("%w: render prompt: %v", ErrAssistantUnavailable, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(text)},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrAssistantUnavailable)
	}

	answer := resp.Choices[0].Message.Content
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: empty answer", ErrAssistantUnavailable)
	}
	return answer, nil
}
