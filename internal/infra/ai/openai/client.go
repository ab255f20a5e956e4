package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

const maxTokens = 2048

// Client is the OpenAI-backed model gateway, selectable via config when a
// deployment prefers chat completions over Gemini.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(p.Attachments) == 0 {
		msg.Content = p.Text
	} else {
		// vision input goes through multi-part content with data URLs
		parts := []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: p.Text},
		}
		for _, a := range p.Attachments {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", a.MIME, base64.StdEncoding.EncodeToString(a.Data)),
				},
			})
		}
		msg.MultiContent = parts
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: []openai.ChatCompletionMessage{msg},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.GatewayError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", &domain.GatewayError{Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GatewayError{Message: "model returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
