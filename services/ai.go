package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatTurn is one entry of the conversation history handed to the AI proxy.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AIChatProxy interface {
	Complete(ctx context.Context, mode string, history []ChatTurn) (string, error)
}

// HTTPChatProxy calls an OpenAI-compatible chat completion endpoint. Retry and
// backoff policy is deliberately left to the remote side.
type HTTPChatProxy struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPChatProxy(url, apiKey, model string) *HTTPChatProxy {
	return &HTTPChatProxy{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *HTTPChatProxy) Complete(ctx context.Context, mode string, history []ChatTurn) (string, error) {
	messages := make([]ChatTurn, 0, len(history)+1)
	if mode != "" {
		messages = append(messages, ChatTurn{Role: "system", Content: mode})
	}
	messages = append(messages, history...)

	body, err := json.Marshal(map[string]any{
		"model":    p.model,
		"messages": messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ai completion status %d: %s", resp.StatusCode, raw)
	}

	var parsed struct {
		Choices []struct {
			Message ChatTurn `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ai completion decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai completion: empty response")
	}
	return parsed.Choices[0].Message.Content, nil
}
