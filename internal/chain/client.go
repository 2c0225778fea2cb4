package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/block-vision/sui-go-sdk/models"
	"github.com/block-vision/sui-go-sdk/sui"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrEmptyResponse  = errors.New("empty rpc response")
)

// ObjectContent is the content projection of an on-chain object: its full
// Move type tag and the parsed field map.
type ObjectContent struct {
	ObjectID string
	Type     string
	Fields   map[string]interface{}
}

// CoinBalance is one coin object owned by an address.
type CoinBalance struct {
	CoinType string
	ObjectID string
	Balance  *big.Int
}

// Event is one emitted Move event with its parsed payload.
type Event struct {
	ID          string
	Type        string
	ParsedJSON  map[string]interface{}
	TimestampMs int64
}

// ReadClient is the read-only surface of the chain node this service
// depends on. Every implementation call is expected to be routed through the
// request gateway; the client itself performs no throttling.
type ReadClient interface {
	// GetObject fetches an object by ID with its content projection.
	GetObject(ctx context.Context, objectID string) (*ObjectContent, error)

	// GetCoins lists coin objects of coinType owned by owner, up to limit.
	GetCoins(ctx context.Context, owner, coinType string, limit uint64) ([]CoinBalance, error)

	// QueryEvents returns up to limit events of the given Move event type,
	// newest first, following pagination cursors as needed.
	QueryEvents(ctx context.Context, eventType string, limit uint64) ([]Event, error)

	// DryRunTransaction evaluates a base64-encoded transaction without
	// submitting it. Used by transaction-building consumers for pre-flight
	// validation; routing itself never submits anything.
	DryRunTransaction(ctx context.Context, txBytesB64 string) error
}

const eventPageSize = 50

// suiClient implements ReadClient over the block-vision Sui JSON-RPC SDK.
type suiClient struct {
	api sui.ISuiAPI
}

// NewSuiClient dials the given fullnode RPC endpoint.
func NewSuiClient(rpcURL string) ReadClient {
	return &suiClient{api: sui.NewSuiClient(rpcURL)}
}

func (c *suiClient) GetObject(ctx context.Context, objectID string) (*ObjectContent, error) {
	resp, err := c.api.SuiGetObject(ctx, models.SuiGetObjectRequest{
		ObjectId: objectID,
		Options: models.SuiObjectDataOptions{
			ShowType:    true,
			ShowContent: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectID, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("get object %s: %w: %s", objectID, ErrObjectNotFound, resp.Error.Code)
	}
	if resp.Data == nil || resp.Data.Content == nil {
		return nil, fmt.Errorf("get object %s: %w", objectID, ErrEmptyResponse)
	}

	return &ObjectContent{
		ObjectID: objectID,
		Type:     resp.Data.Content.Type,
		Fields:   resp.Data.Content.Fields,
	}, nil
}

func (c *suiClient) GetCoins(ctx context.Context, owner, coinType string, limit uint64) ([]CoinBalance, error) {
	resp, err := c.api.SuiXGetCoins(ctx, models.SuiXGetCoinsRequest{
		Owner:    owner,
		CoinType: coinType,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get coins for %s: %w", owner, err)
	}

	coins := make([]CoinBalance, 0, len(resp.Data))
	for _, c := range resp.Data {
		bal, ok := new(big.Int).SetString(c.Balance, 10)
		if !ok {
			// Malformed balance on a single coin is not fatal to the batch.
			continue
		}
		coins = append(coins, CoinBalance{
			CoinType: c.CoinType,
			ObjectID: c.CoinObjectId,
			Balance:  bal,
		})
	}
	return coins, nil
}

func (c *suiClient) QueryEvents(ctx context.Context, eventType string, limit uint64) ([]Event, error) {
	events := make([]Event, 0, limit)
	var cursor interface{}

	for uint64(len(events)) < limit {
		page := eventPageSize
		if remaining := limit - uint64(len(events)); remaining < eventPageSize {
			page = int(remaining)
		}

		resp, err := c.api.SuiXQueryEvents(ctx, models.SuiXQueryEventsRequest{
			SuiEventFilter:  map[string]interface{}{"MoveEventType": eventType},
			Cursor:          cursor,
			Limit:           uint64(page),
			DescendingOrder: true,
		})
		if err != nil {
			return nil, fmt.Errorf("query events %s: %w", eventType, err)
		}

		for _, ev := range resp.Data {
			events = append(events, Event{
				ID:          fmt.Sprintf("%s:%s", ev.Id.TxDigest, ev.Id.EventSeq),
				Type:        ev.Type,
				ParsedJSON:  ev.ParsedJson,
				TimestampMs: parseTimestampMs(ev.TimestampMs),
			})
		}

		if !resp.HasNextPage || len(resp.Data) == 0 {
			break
		}
		cursor = resp.NextCursor
	}

	return events, nil
}

func (c *suiClient) DryRunTransaction(ctx context.Context, txBytesB64 string) error {
	_, err := c.api.SuiDryRunTransactionBlock(ctx, models.SuiDryRunTransactionBlockRequest{
		TxBytes: txBytesB64,
	})
	if err != nil {
		return fmt.Errorf("dry run: %w", err)
	}
	return nil
}

func parseTimestampMs(s string) int64 {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
