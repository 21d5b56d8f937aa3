// Package fx fetches exchange rate snapshots from a fixer.io-compatible provider.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const requestTimeout = 10 * time.Second

// Snapshot is one successful rate fetch: the provider's base currency and the
// rates of every currency it reports, relative to that base.
type Snapshot struct {
	Base  string
	Rates map[string]decimal.Decimal
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Enabled reports whether an API key is configured. Without one the
// rate-refresh job is a no-op.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type latestResponse struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   struct {
		Info string `json:"info"`
	} `json:"error"`
}

// FetchLatest performs one GET against the provider. Any transport, decode or
// provider-level failure is returned as an error; callers must not apply a
// partial snapshot.
func (c *Client) FetchLatest(ctx context.Context) (*Snapshot, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid FX endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("access_key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building FX request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching exchange rates: %w", err)
	}
	defer resp.Body.Close()

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding FX response: %w", err)
	}
	if !body.Success {
		info := body.Error.Info
		if info == "" {
			info = "unknown error"
		}
		return nil, fmt.Errorf("FX provider error: %s", info)
	}

	snap := &Snapshot{
		Base:  body.Base,
		Rates: make(map[string]decimal.Decimal, len(body.Rates)),
	}
	for code, rate := range body.Rates {
		snap.Rates[code] = decimal.NewFromFloat(rate)
	}
	return snap, nil
}
