package llm

import (
	"context"
	"errors"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func ApplyOptions(opts ...Option) *Options {
	options := &Options{Temperature: 0.3}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// DeltaFunc receives each text fragment in generation order. Returning an
// error stops the stream and Stream returns that error.
type DeltaFunc func(delta string) error

// LLMProvider defines the contract for any streaming LLM backend
type LLMProvider interface {
	Stream(ctx context.Context, history []Message, onDelta DeltaFunc, options ...Option) error
	Name() string
}

// ErrEmptyStream is returned when a provider closes the stream without
// producing any text.
var ErrEmptyStream = errors.New("llm stream produced no text")

// Prompt is a convenience for single-turn generation.
func Prompt(text string) []Message {
	return []Message{{Role: "user", Content: text}}
}
