package testpredict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/sentio/internal/domain/sentiment"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// PostRaw performs a POST request with a raw JSON body
func (c *HTTPClient) PostRaw(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// encodeText builds a request body. HTML escaping is off so the bytes on the
// wire match the text.
func encodeText(text string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string{"text": text}); err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return buf.Bytes(), nil
}

// submitText posts one text and decodes the prediction on 200.
func submitText(ctx context.Context, client *HTTPClient, url, text string, attempt int) Result {
	res := Result{Text: text, Attempt: attempt}

	body, err := encodeText(text)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	start := time.Now()
	resp, err := client.PostRaw(ctx, url, body)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	data, err := readResponseBody(resp)
	res.Latency = time.Since(start)
	res.StatusCode = resp.StatusCode
	if err != nil {
		res.Err = fmt.Sprintf("failed to read response: %v", err)
		return res
	}
	if resp.StatusCode != http.StatusOK {
		return res
	}

	var pred sentiment.Prediction
	if err := json.Unmarshal(data, &pred); err != nil {
		res.Err = fmt.Sprintf("failed to decode prediction: %v", err)
		return res
	}
	res.Prediction = pred
	return res
}
