// Package gemini adapts the Gemini generative API to the narrator port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fableturn/internal/app/ports"
)

type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &Client{client: c, model: model}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Generate buffers the full candidate text before returning; the
// validator needs the complete document.
func (c *Client) Generate(ctx context.Context, req ports.NarrationRequest) (string, error) {
	model := c.client.GenerativeModel(c.model)
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}

	var system []genai.Part
	var history []*genai.Content
	var last genai.Part
	for i, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, genai.Text(msg.Content))
		default:
			if i == len(req.Messages)-1 {
				last = genai.Text(msg.Content)
				continue
			}
			role := "user"
			if msg.Role == "assistant" {
				role = "model"
			}
			history = append(history, &genai.Content{
				Role:  role,
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if last == nil {
		last = genai.Text("Continue the scene.")
	}

	chat := model.StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, last)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", errors.New("gemini returned no text candidates")
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		break
	}
	return b.String()
}
