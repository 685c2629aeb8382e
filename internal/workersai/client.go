package workersai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to a Workers AI style inference endpoint. It performs no
// retries; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) newRequest(ctx context.Context, req *ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.baseURL + "/run/" + url.PathEscape(req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	return httpReq, nil
}

// Call performs one blocking inference request.
func (c *Client) Call(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// CallStream performs a streaming inference request and returns the raw
// line-delimited event body. The caller owns the reader and must close it.
func (c *Client) CallStream(ctx context.Context, req *ChatRequest) (io.ReadCloser, error) {
	req.Stream = true

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readError(resp)
	}

	return resp.Body, nil
}

// readError surfaces the backend's own error detail rather than a bare
// status line.
func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	var apiErr struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if len(apiErr.Errors) > 0 && apiErr.Errors[0].Message != "" {
			return fmt.Errorf("backend error (%d): %s", resp.StatusCode, apiErr.Errors[0].Message)
		}
		if apiErr.Error.Message != "" {
			return fmt.Errorf("backend error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
	}

	return fmt.Errorf("backend error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
