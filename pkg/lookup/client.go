// Package lookup queries the InternetDB-style intelligence API and runs
// the per-target pipeline: cache check, identity selection, rate slot,
// request, classification, backoff, cache write.
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ipintel/ipintel/pkg/defaults"
	"github.com/ipintel/ipintel/pkg/duration"
	"github.com/ipintel/ipintel/pkg/identity"
	"github.com/ipintel/ipintel/pkg/iohelper"
	"github.com/ipintel/ipintel/pkg/jsonutil"
)

// Client performs single attempts against the intelligence API using
// whatever identity the caller hands it.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a client for the given API base URL. An empty base
// falls back to the public endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaults.LookupBaseURL
	}
	if timeout <= 0 {
		timeout = duration.HTTPLookup
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Fetch performs one GET for the address through the identity's session.
// It returns the parsed record on 2xx, otherwise the status code and a
// nil record; transport failures come back as err.
func (c *Client) Fetch(ctx context.Context, id *identity.Identity, ip string) (*Record, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept", "application/json")
	if id.AcceptLang != "" {
		req.Header.Set("Accept-Language", id.AcceptLang)
	}

	resp, err := id.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	body, err := iohelper.ReadBody(resp.Body, iohelper.DefaultMaxBodySize)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var rec Record
	if err := jsonutil.Unmarshal(body, &rec); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response for %s: %w", ip, err)
	}
	if rec.IP == "" {
		rec.IP = ip
	}
	return &rec, resp.StatusCode, nil
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string { return c.baseURL }
