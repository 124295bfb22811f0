package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// InferenceRequest is the wire shape the remote generate-response function
// expects. Field names are fixed by the endpoint contract.
type InferenceRequest struct {
	ChatID   string `json:"chatId"`
	Subject  string `json:"subject"`
	Language string `json:"language"`
	Message  string `json:"message"`
}

// InferenceClient calls the remote inference endpoint that produces tutor
// replies. The caller's bearer credential is forwarded verbatim; the client
// imposes no timeout of its own beyond the request context.
type InferenceClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewInferenceClient(endpoint string) *InferenceClient {
	return &InferenceClient{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
}

func (c *InferenceClient) Generate(ctx context.Context, accessToken string, req InferenceRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode inference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build inference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = resp.Status
		}
		return "", &InferenceError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode inference response: %w", err)
	}

	return out.Response, nil
}
