package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient makes REST calls to the telemetry daemon.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetSession fetches /api/session.
func (c *HTTPClient) GetSession() (*Session, error) {
	var s Session
	if err := c.get("/api/session", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStats fetches /api/stats.
func (c *HTTPClient) GetStats() (*Stats, error) {
	var s Stats
	if err := c.get("/api/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetHistory fetches /api/history.
func (c *HTTPClient) GetHistory() (*History, error) {
	var h History
	if err := c.get("/api/history", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// PostFeedback sends POST /api/feedback. It reports whether a session was
// running to receive it.
func (c *HTTPClient) PostFeedback(fb Feedback) (bool, error) {
	var out feedbackResponse
	if err := c.post("/api/feedback", fb, &out); err != nil {
		return false, err
	}
	return out.Accepted, nil
}

// SetLifecycle sends POST /api/lifecycle. Nil values are left unchanged.
func (c *HTTPClient) SetLifecycle(foreground, portrait *bool) error {
	return c.post("/api/lifecycle", lifecycleRequest{Foreground: foreground, Portrait: portrait}, nil)
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
