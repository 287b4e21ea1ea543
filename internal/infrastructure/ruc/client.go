package ruc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/memphis-pe/oc-api/internal/config"
)

// Client is a thin pass-through to the external RUC (tax-ID) lookup API.
// Responses are relayed verbatim; the handler adds caching headers.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.RUCAPIBaseURL,
		token:   cfg.RUCAPIToken,
	}
}

// Lookup fetches the registry record for one RUC and returns the raw response
// body together with the upstream status code.
func (c *Client) Lookup(ctx context.Context, ruc string) ([]byte, int, error) {
	url := fmt.Sprintf("%s/ruc?numero=%s", c.baseURL, ruc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("ruc lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read ruc response: %w", err)
	}
	return body, resp.StatusCode, nil
}
