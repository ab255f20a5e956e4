package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

const (
	defaultModel    = "gemini-1.5-flash-latest"
	defaultBaseURL  = "https://generativelanguage.googleapis.com/v1beta/models"
	maxOutputTokens = 2000
)

// Client calls the Gemini generateContent endpoint. Transport only: no
// retries, no business branching; the caller's context bounds the call.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		// no client-level timeout; the request context carries the deadline
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	model := c.model
	if model == "" {
		model = defaultModel
	}

	parts := []part{{Text: p.Text}}
	for _, a := range p.Attachments {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: a.MIME,
			Data:     base64.StdEncoding.EncodeToString(a.Data),
		}})
	}
	body := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     0.3,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// surface deadline/cancel as-is so the caller can classify it
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &domain.GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &domain.GatewayError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.GatewayError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response body: %v", err)}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &domain.GatewayError{Status: resp.StatusCode, Message: "model returned no candidates"}
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
