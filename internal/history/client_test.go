package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestDisabledClient(t *testing.T) {
	c := NewClient("", time.Second)

	if c.Enabled() {
		t.Error("client with no base URL should be disabled")
	}

	// Writes are silent no-ops.
	c.RecordLiquidityEvent(context.Background(), LiquidityEvent{PairID: "0xp"})
	c.RecordPositionSnapshot(context.Background(), PositionSnapshot{Owner: "0xo"})

	if _, err := c.LiquidityEventsByPair(context.Background(), "0xp"); !errors.Is(err, ErrDisabled) {
		t.Errorf("read on disabled client: %v, want ErrDisabled", err)
	}
	if _, err := c.PositionsByOwner(context.Background(), "0xo"); !errors.Is(err, ErrDisabled) {
		t.Errorf("read on disabled client: %v, want ErrDisabled", err)
	}
}

func TestRecordLiquidityEventPostsJSON(t *testing.T) {
	var received LiquidityEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/liquidity-events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	c.RecordLiquidityEvent(context.Background(), LiquidityEvent{
		PairID:  "0xp",
		Owner:   "0xo",
		Action:  "add",
		AmountA: "100",
		AmountB: "200",
	})

	if received.PairID != "0xp" || received.Action != "add" {
		t.Errorf("server received %+v", received)
	}
}

func TestLiquidityEventsByPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pairId"); got != "0xp" {
			t.Errorf("pairId = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"pairId":"0xp","owner":"0xo","action":"remove"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	events, err := c.LiquidityEventsByPair(context.Background(), "0xp")
	if err != nil {
		t.Fatalf("LiquidityEventsByPair: %v", err)
	}
	if len(events) != 1 || events[0].Action != "remove" {
		t.Errorf("events = %+v", events)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.PositionsByOwner(context.Background(), "0xo"); err == nil {
		t.Error("expected error on 500 response")
	}
}
