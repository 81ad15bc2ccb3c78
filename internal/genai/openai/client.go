// Package openai implements the genai ports against any OpenAI-compatible
// API via sashabaranov/go-openai.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	dErrors "brandgov/pkg/domain-errors"

	"brandgov/internal/genai"
	"brandgov/internal/platform/config"
)

// Client talks to the chat-completion and embedding endpoints.
type Client struct {
	api            *openai.Client
	textModel      string
	visionModel    string
	embeddingModel string
	embeddingDim   int
}

// New builds a Client from configuration. BaseURL is optional and allows
// pointing at a compatible self-hosted gateway.
func New(cfg config.GenAI) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "genai: API key is required")
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		textModel:      cfg.TextModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		embeddingDim:   cfg.EmbeddingDim,
	}, nil
}

// GenerateText runs a plain chat completion.
func (c *Client) GenerateText(ctx context.Context, prompt genai.TextPrompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.textModel,
		Temperature: prompt.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	}
	if prompt.ForceJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return c.complete(ctx, req)
}

// GenerateMultimodal sends the image inline as a base64 data URL so no
// externally reachable storage is needed for the model to see it.
func (c *Client) GenerateMultimodal(ctx context.Context, prompt genai.ImagePrompt) (string, error) {
	if len(prompt.ImageData) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "genai: image data is empty")
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		prompt.MimeType, base64.StdEncoding.EncodeToString(prompt.ImageData))

	req := openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.User},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	if prompt.ForceJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return c.complete(ctx, req)
}

// Embed returns a vector pinned to the configured dimension so stored
// embeddings stay comparable across model upgrades.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "genai: cannot embed empty text")
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(c.embeddingModel),
		Input:      []string{text},
		Dimensions: c.embeddingDim,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "genai: embedding request failed")
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, dErrors.New(dErrors.CodeBadGateway, "genai: embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadGateway, "genai: chat completion failed")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", genai.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
