// Package history talks to the external history/positions service. The
// service is optional; a client with no base URL swallows writes and
// returns empty reads.
package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

var ErrDisabled = errors.New("history service not configured")

// LiquidityEvent records an add/remove liquidity action against a pair.
type LiquidityEvent struct {
	PairID    string `json:"pairId"`
	Owner     string `json:"owner"`
	Action    string `json:"action"`
	AmountA   string `json:"amountA"`
	AmountB   string `json:"amountB"`
	TxDigest  string `json:"txDigest"`
	Timestamp int64  `json:"timestamp"`
}

// PositionSnapshot is a point-in-time LP position for an owner.
type PositionSnapshot struct {
	PairID    string `json:"pairId"`
	Owner     string `json:"owner"`
	LPBalance string `json:"lpBalance"`
	ShareBps  uint32 `json:"shareBps"`
	Timestamp int64  `json:"timestamp"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a history client. An empty baseURL disables it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// RecordLiquidityEvent posts a liquidity event. Failures are logged, not
// returned; history writes never block the request path.
func (c *Client) RecordLiquidityEvent(ctx context.Context, ev LiquidityEvent) {
	if !c.Enabled() {
		return
	}
	if err := c.post(ctx, "/liquidity-events", ev); err != nil {
		log.Warn().Str("pairId", ev.PairID).Err(err).Msg("[history] liquidity event dropped")
	}
}

// RecordPositionSnapshot posts a position snapshot, same contract as
// RecordLiquidityEvent.
func (c *Client) RecordPositionSnapshot(ctx context.Context, snap PositionSnapshot) {
	if !c.Enabled() {
		return
	}
	if err := c.post(ctx, "/positions", snap); err != nil {
		log.Warn().Str("owner", snap.Owner).Err(err).Msg("[history] position snapshot dropped")
	}
}

// LiquidityEventsByPair fetches the recorded events for one pair.
func (c *Client) LiquidityEventsByPair(ctx context.Context, pairID string) ([]LiquidityEvent, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	var out []LiquidityEvent
	err := c.get(ctx, "/liquidity-events?pairId="+url.QueryEscape(pairID), &out)
	return out, err
}

// PositionsByOwner fetches the position snapshots for one owner address.
func (c *Client) PositionsByOwner(ctx context.Context, owner string) ([]PositionSnapshot, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	var out []PositionSnapshot
	err := c.get(ctx, "/positions?owner="+url.QueryEscape(owner), &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("history service returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("history service returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}
