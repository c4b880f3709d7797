package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chemxplore/internal/model"
)

const RelayPath = "/chemistry-chat"

// RelayError is a non-2xx relay answer. Reply is the relay's own fallback
// text, safe to show.
type RelayError struct {
	StatusCode int
	Message    string
	Reply      string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay error %d: %s", e.StatusCode, e.Message)
}

type RelayClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		endpoint:   strings.TrimRight(baseURL, "/") + RelayPath,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type relayRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

type relayResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *RelayClient) Relay(ctx context.Context, messages []model.ChatMessage) (string, error) {
	payload, err := json.Marshal(relayRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal relay request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build relay request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	var out relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode relay response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RelayError{StatusCode: resp.StatusCode, Message: out.Error, Reply: out.Response}
	}
	if out.Response == "" {
		return "", errors.New("relay returned an empty response")
	}
	return out.Response, nil
}
