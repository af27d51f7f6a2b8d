// Package summarize shortens extracted mail before it is read aloud, using
// an OpenAI-compatible chat model when one is configured and a simple
// leading-sentences summary otherwise.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyInput is returned for blank input text.
var ErrEmptyInput = errors.New("input text is empty or invalid")

// Defaults.
const (
	DefaultMaxLength = 100
	DefaultMinLength = 50
	DefaultModel     = openai.GPT4oMini
)

// Config configures a Summarizer.
type Config struct {
	APIKey    string // falls back to OPENAI_API_KEY
	BaseURL   string // OpenAI-compatible endpoint, e.g. a local server
	Model     string
	MaxLength int
	MinLength int
	Timeout   time.Duration
}

// Summarizer produces short summaries.
type Summarizer struct {
	cfg    Config
	client *openai.Client
}

// New returns a Summarizer. Without an API key or base URL only the simple
// summary is available.
func New(cfg Config) *Summarizer {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	s := &Summarizer{cfg: cfg}
	if cfg.APIKey != "" || cfg.BaseURL != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		s.client = openai.NewClientWithConfig(oc)
	}
	return s
}

// UsesModel reports whether a language model is configured.
func (s *Summarizer) UsesModel() bool { return s.client != nil }

// Summarize returns a summary of text. Model failures fall back to the
// simple summary; only blank input is an error.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", ErrEmptyInput
	}
	if s.client == nil {
		log.Info("No summarization model configured, using simple summarizer")
		return Simple(text, s.cfg.MaxLength), nil
	}

	summary, err := s.complete(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("Model summarization failed, falling back to simple summarizer", "model", s.cfg.Model, "error", err)
		return Simple(text, s.cfg.MaxLength), nil
	}
	return summary, nil
}

func (s *Summarizer) complete(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.prompt()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	summary := PlainText(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("model returned an empty summary")
	}
	return summary, nil
}

func (s *Summarizer) prompt() string {
	return fmt.Sprintf("You summarize letters and documents so they can be read aloud. "+
		"Write a plain summary of between %d and %d words. "+
		"Say who sent it and keep every date, amount and required action.",
		s.cfg.MinLength, s.cfg.MaxLength)
}
