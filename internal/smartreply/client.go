// Package smartreply proxies chat messages to a text-completion API and
// returns up to three short reply suggestions.
package smartreply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	completionsURL = "https://api.openai.com/v1/chat/completions"
	modelName      = "gpt-4"
	maxSuggestions = 3
)

var ErrNoSuggestions = errors.New("no reply suggestions returned")

// Client calls the completion API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

// NewClient builds a Client. The endpoint is overridable for tests.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   completionsURL,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Suggest returns up to three context-aware reply suggestions for a message.
func (c *Client) Suggest(ctx context.Context, message string) ([]string, error) {
	prompt := fmt.Sprintf(`Provide three concise, context-aware smart reply suggestions to the following message: %q. Do not include any serial numbers, bullets, or numbering in your replies. Return each suggestion on a new line.`, message)

	body, err := json.Marshal(completionRequest{
		Model: modelName,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an assistant that provides smart, concise reply suggestions for chat messages."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   60,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return nil, fmt.Errorf("completion api: %s", decoded.Error.Message)
		}
		return nil, fmt.Errorf("completion api: status %d", resp.StatusCode)
	}
	if len(decoded.Choices) == 0 {
		return nil, ErrNoSuggestions
	}

	suggestions := splitSuggestions(decoded.Choices[0].Message.Content)
	if len(suggestions) == 0 {
		return nil, ErrNoSuggestions
	}
	return suggestions, nil
}

func splitSuggestions(content string) []string {
	lines := strings.Split(content, "\n")
	suggestions := make([]string, 0, maxSuggestions)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
