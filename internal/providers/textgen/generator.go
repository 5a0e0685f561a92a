// Package textgen wraps the chat completion provider used to write scripts,
// captions and prompts.
package textgen

import "context"

// Request is a single system/user exchange.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
