package litellm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// fenced matches a ```yaml, ```yml, ```json or bare ``` block.
var fenced = regexp.MustCompile("(?s)```(?:ya?ml|json)?[ \\t]*\\r?\\n(.*?)```")

// Generator implements generator.Generator with chat completions.
type Generator struct {
	client *Client
	cfg    config.Generator
}

// NewGenerator creates a Generator using client and the model settings in cfg.
func NewGenerator(client *Client, cfg config.Generator) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate drafts a story map from a product description.
func (g *Generator) Generate(ctx context.Context, description string) (any, error) {
	user, err := generatePrompt(description)
	if err != nil {
		return nil, err
	}
	return g.complete(ctx, user)
}

// GenerateWithFeedback revises current according to feedback.
func (g *Generator) GenerateWithFeedback(ctx context.Context, current *storymap.Document, feedback string) (any, error) {
	user, err := feedbackPrompt(current, feedback)
	if err != nil {
		return nil, err
	}
	return g.complete(ctx, user)
}

func (g *Generator) complete(ctx context.Context, user string) (any, error) {
	system, err := systemPrompt()
	if err != nil {
		return nil, err
	}

	resp, err := g.client.ChatCompletion(ctx, ChatRequest{
		Model: g.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
	}

	payload, ok := ExtractPayload(resp.Content())
	if !ok {
		return nil, fmt.Errorf("%w: no story map in model output", domain.ErrMalformedGeneration)
	}
	return storymap.DecodeRaw([]byte(payload))
}

// ExtractPayload finds the story map inside free model text: the first
// fenced code block, else the whole text when it parses as a YAML mapping
// with a title, else the outermost {...} span.
func ExtractPayload(text string) (string, bool) {
	if m := fenced.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return m[1], true
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	var probe map[string]any
	if err := yaml.Unmarshal([]byte(trimmed), &probe); err == nil {
		if _, ok := probe["title"]; ok {
			return trimmed, true
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return trimmed[start : end+1], true
}
