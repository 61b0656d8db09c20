package ai

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"
)

type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", ErrMissingCredentials)
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: systemInstruction},
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeOrDefault(mimeType), Data: image}},
		},
	}
	res, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{content}, nil)
	if err != nil {
		return "", g.wrap(err)
	}
	return res.Text(), nil
}

func (g *Gemini) wrap(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: g.Name(), Code: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &StatusError{Provider: g.Name(), Code: apiErrPtr.Code, Err: err}
	}
	return &StatusError{Provider: g.Name(), Err: err}
}
