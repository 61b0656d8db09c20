package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// GeminiOpenAIURL is Gemini's OpenAI-compatible endpoint.
const GeminiOpenAIURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// OpenAICompat talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompat struct {
	client *openai.Client
}

func NewOpenAICompat(apiKey, baseURL string) (*OpenAICompat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", ErrMissingCredentials)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompat{client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAICompat) Name() string { return "openai" }

func (o *OpenAICompat) Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	dataURL := "data:" + mimeOrDefault(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(image)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", o.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAICompat) wrap(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: o.Name(), Code: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &StatusError{Provider: o.Name(), Code: reqErr.HTTPStatusCode, Err: err}
	}
	return &StatusError{Provider: o.Name(), Err: err}
}
