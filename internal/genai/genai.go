// Package genai defines the ports to the generative-AI provider. Services
// depend on these interfaces; the openai subpackage and the cache decorator
// implement them.
package genai

import (
	"context"

	dErrors "brandgov/pkg/domain-errors"
)

// TextPrompt is a single chat-completion request for text output.
type TextPrompt struct {
	System      string
	User        string
	Temperature float32
	// ForceJSON asks the provider for a JSON-object response. The caller is
	// still responsible for describing the expected shape in the prompt.
	ForceJSON bool
}

// ImagePrompt is a multimodal request pairing an instruction with image bytes.
type ImagePrompt struct {
	System    string
	User      string
	ImageData []byte
	MimeType  string
	ForceJSON bool
}

// Generator produces model completions.
type Generator interface {
	GenerateText(ctx context.Context, prompt TextPrompt) (string, error)
	GenerateMultimodal(ctx context.Context, prompt ImagePrompt) (string, error)
}

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrEmptyCompletion is returned when the provider answers without content.
var ErrEmptyCompletion = dErrors.New(dErrors.CodeBadGateway, "model returned an empty completion")
