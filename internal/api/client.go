package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to a running `fundme serve`.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL (e.g. http://127.0.0.1:8080).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Campaign fetches GET /api/v1/campaign.
func (c *Client) Campaign(ctx context.Context) (*CampaignView, error) {
	var v CampaignView
	if err := c.do(ctx, http.MethodGet, "/api/v1/campaign", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Contribution fetches GET /api/v1/contributions/{addr}.
func (c *Client) Contribution(ctx context.Context, addr common.Address) (*ContributionView, error) {
	var v ContributionView
	if err := c.do(ctx, http.MethodGet, "/api/v1/contributions/"+addr.Hex(), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// NextNonce fetches GET /api/v1/nonces/{addr}.
func (c *Client) NextNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var v NonceView
	if err := c.do(ctx, http.MethodGet, "/api/v1/nonces/"+addr.Hex(), nil, &v); err != nil {
		return 0, err
	}
	return v.Next, nil
}

// Events fetches GET /api/v1/events from seq onwards.
func (c *Client) Events(ctx context.Context, from uint64) ([]ledger.Event, error) {
	var evs []ledger.Event
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/events?from=%d", from), nil, &evs); err != nil {
		return nil, err
	}
	return evs, nil
}

// Submit posts a signed call.
func (c *Client) Submit(ctx context.Context, sc *wallet.SignedCall) (*ReceiptView, error) {
	body, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}
	var v ReceiptView
	if err := c.do(ctx, http.MethodPost, "/api/v1/calls", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
