// Package llm routes content to generation profiles and produces summaries through an
// OpenAI-compatible chat completion API.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sashabaranov/go-openai"
	"github.com/yuin/goldmark"

	"github.com/umputun/newsdigest/pkg/config"
	"github.com/umputun/newsdigest/pkg/domain"
)

// ErrEmptySummary is returned when the model replies with no usable text
var ErrEmptySummary = errors.New("empty summary")

// reasoning models wrap their chain of thought in think tags
var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Summarizer generates item summaries with an LLM
type Summarizer struct {
	client    *openai.Client
	systemMsg string
	maxInput  int
	md        goldmark.Markdown
	policy    *bluemonday.Policy
}

// NewSummarizer creates a new LLM summarizer
func NewSummarizer(cfg config.LLMConfig) *Summarizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	// use custom system prompt if provided, otherwise use default
	systemMsg := cfg.SystemPrompt
	if systemMsg == "" {
		systemMsg = defaultSystemPrompt
	}

	return &Summarizer{
		client:    openai.NewClientWithConfig(clientConfig),
		systemMsg: systemMsg,
		maxInput:  cfg.MaxInputChars,
		md:        goldmark.New(),
		policy:    bluemonday.StrictPolicy(),
	}
}

// Summarize asks the model for a summary of the item using the given generation parameters
func (s *Summarizer) Summarize(ctx context.Context, item domain.ContentItem, params domain.GenerationParams) (string, error) {
	tmpl, ok := promptTemplates[params.Prompt]
	if !ok {
		tmpl = promptTemplates[string(domain.CategoryGeneral)]
	}
	text := item.Body
	if text == "" {
		text = item.Title
	}
	if runes := []rune(text); s.maxInput > 0 && len(runes) > s.maxInput {
		text = string(runes[:s.maxInput]) + "..."
	}
	prompt := strings.NewReplacer("{title}", item.Title, "{text}", text).Replace(tmpl)

	req := openai.ChatCompletionRequest{
		Model:       params.Model,
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from llm")
	}

	summary, err := s.cleanup(resp.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// cleanup drops reasoning blocks and renders markdown replies into plain text, one line per block
func (s *Summarizer) cleanup(reply string) (string, error) {
	reply = strings.TrimSpace(thinkRe.ReplaceAllString(reply, ""))
	if reply == "" {
		return "", nil
	}
	reply = strings.TrimSpace(strings.TrimPrefix(reply, "Summary:"))

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(reply), &buf); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	text := html.UnescapeString(s.policy.Sanitize(buf.String()))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
