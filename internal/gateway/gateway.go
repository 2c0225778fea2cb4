// Package gateway funnels every outbound chain read through a single
// admission point. Public fullnodes rate-limit aggressively; a UI-driven
// service polling pairs and balances produces exactly the bursty pattern
// that trips those limits. The gateway converts that burst into a bounded,
// evenly spaced request stream and stops hammering a node that is already
// failing.
package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/pelagos-labs/route-engine/internal/config"
	"github.com/pelagos-labs/route-engine/internal/metrics"
)

const SERVICE_NAME = "chain-gateway"

var ErrStopped = errors.New("gateway stopped")

// Task is a single outbound read call. The gateway never retries a task;
// its error goes back to the caller unchanged.
type Task func(ctx context.Context) (interface{}, error)

// State is the circuit breaker state.
type State int32

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Config bounds the gateway's dispatch behavior.
type Config struct {
	// MaxConcurrent is the ceiling on tasks in flight at once.
	MaxConcurrent int
	// MinInterval is the minimum spacing between two dispatches, measured
	// from the previous dispatch.
	MinInterval time.Duration
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker.
	FailureThreshold int
	// CoolDown is how long the breaker stays open before the next probing
	// batch is admitted.
	CoolDown time.Duration
}

// DefaultConfig matches the limits a free-tier fullnode tolerates.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:    2,
		MinInterval:      750 * time.Millisecond,
		FailureThreshold: 5,
		CoolDown:         5 * time.Second,
	}
}

type entry struct {
	task       Task
	ctx        context.Context
	enqueuedAt time.Time
	done       chan outcome
}

type outcome struct {
	result interface{}
	err    error
}

// Stats is a point-in-time snapshot for the health endpoint.
type Stats struct {
	State               string `json:"state"`
	QueueDepth          int    `json:"queueDepth"`
	InFlight            int    `json:"inFlight"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	Dispatched          uint64 `json:"dispatched"`
	Failures            uint64 `json:"failures"`
}

// Gateway serializes and throttles chain reads behind a FIFO queue with a
// concurrency ceiling, dispatch spacing, and a failure-counting circuit
// breaker. It holds no chain state of its own. Construct one explicitly per
// session (or per test) and inject it; there is deliberately no package
// singleton.
type Gateway struct {
	container.BaseDIInstance

	cfg Config

	mu       sync.Mutex
	queue    []*entry
	notEmpty *sync.Cond

	state        atomic.Int32
	failures     atomic.Int32
	openedAt     time.Time // guarded by mu
	lastDispatch time.Time // dispatcher-only

	inFlight   atomic.Int32
	dispatched atomic.Uint64
	failed     atomic.Uint64

	sem     chan struct{}
	resetCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool
}

// New builds a gateway ready to Start. Zero or negative config fields fall
// back to defaults.
func New(cfg Config) *Gateway {
	g := &Gateway{}
	g.init(cfg)
	return g
}

func (g *Gateway) init(cfg Config) {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = def.CoolDown
	}

	g.cfg = cfg
	g.notEmpty = sync.NewCond(&g.mu)
	g.sem = make(chan struct{}, cfg.MaxConcurrent)
	g.resetCh = make(chan struct{}, 1)
	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	g.state.Store(int32(StateClosed))
}

func (g *Gateway) ID() string {
	return SERVICE_NAME
}

func (g *Gateway) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.GATEWAY_CONFIG_KEY).(*config.GatewayConfig)
	g.init(Config{
		MaxConcurrent:    conf.MaxConcurrent,
		MinInterval:      time.Duration(conf.MinIntervalMs) * time.Millisecond,
		FailureThreshold: conf.FailureThreshold,
		CoolDown:         time.Duration(conf.CoolDownMs) * time.Millisecond,
	})
	return nil
}

// Start launches the dispatcher. Idempotent.
func (g *Gateway) Start() error {
	if !g.started.CompareAndSwap(false, true) {
		return nil
	}
	go g.dispatch()
	log.Info().
		Int("maxConcurrent", g.cfg.MaxConcurrent).
		Dur("minInterval", g.cfg.MinInterval).
		Msg("[gateway] dispatcher started")
	return nil
}

// Stop shuts the dispatcher down. Queued tasks that never dispatched fail
// with ErrStopped; in-flight tasks run to completion.
func (g *Gateway) Stop() error {
	if !g.started.Load() {
		return nil
	}
	close(g.stopCh)

	g.mu.Lock()
	g.notEmpty.Broadcast()
	g.mu.Unlock()

	<-g.doneCh

	g.mu.Lock()
	pending := g.queue
	g.queue = nil
	g.mu.Unlock()
	for _, e := range pending {
		e.done <- outcome{err: ErrStopped}
	}

	log.Info().Msg("[gateway] dispatcher stopped")
	return nil
}

// Enqueue queues a task and blocks until it completes or ctx expires.
// A ctx expiry only abandons the wait: the task, once dispatched, still runs
// to completion and its result is discarded. Tasks dispatch in FIFO order;
// completion order is not guaranteed.
func (g *Gateway) Enqueue(ctx context.Context, task Task) (interface{}, error) {
	e := &entry{
		task:       task,
		ctx:        ctx,
		enqueuedAt: time.Now(),
		done:       make(chan outcome, 1),
	}

	g.mu.Lock()
	g.queue = append(g.queue, e)
	depth := len(g.queue)
	g.notEmpty.Signal()
	g.mu.Unlock()
	metrics.GatewayQueueDepth.Set(float64(depth))

	select {
	case out := <-e.done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do is a typed wrapper over Enqueue.
func Do[T any](ctx context.Context, g *Gateway, fn func(ctx context.Context) (T, error)) (T, error) {
	res, err := g.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// ResetCircuitBreaker forces the breaker closed and zeroes the failure
// counter. Wired to the manual retry affordance shown after a network-health
// warning.
func (g *Gateway) ResetCircuitBreaker() {
	g.failures.Store(0)
	g.state.Store(int32(StateClosed))
	metrics.GatewayBreakerOpen.Set(0)
	select {
	case g.resetCh <- struct{}{}:
	default:
	}
	log.Info().Msg("[gateway] circuit breaker reset")
}

// State returns the current breaker state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// Snapshot returns current gateway counters.
func (g *Gateway) Snapshot() Stats {
	g.mu.Lock()
	depth := len(g.queue)
	g.mu.Unlock()

	return Stats{
		State:               g.State().String(),
		QueueDepth:          depth,
		InFlight:            int(g.inFlight.Load()),
		ConsecutiveFailures: int(g.failures.Load()),
		Dispatched:          g.dispatched.Load(),
		Failures:            g.failed.Load(),
	}
}

func (g *Gateway) dispatch() {
	defer close(g.doneCh)

	for {
		e, ok := g.next()
		if !ok {
			return
		}

		// An abandoned caller's task is dropped before dispatch; once
		// dispatched, tasks always run to completion.
		if e.ctx.Err() != nil {
			e.done <- outcome{err: e.ctx.Err()}
			continue
		}

		// Admission gates, in order: breaker, concurrency slot, spacing.
		if !g.waitBreakerClosed() {
			e.done <- outcome{err: ErrStopped}
			return
		}
		select {
		case g.sem <- struct{}{}:
		case <-g.stopCh:
			e.done <- outcome{err: ErrStopped}
			return
		}
		if !g.waitSpacing() {
			<-g.sem
			e.done <- outcome{err: ErrStopped}
			return
		}

		g.lastDispatch = time.Now()
		g.dispatched.Add(1)
		g.inFlight.Add(1)
		metrics.GatewayDispatched.Inc()

		go g.run(e)
	}
}

// next blocks until a queued entry is available or the gateway stops.
func (g *Gateway) next() (*entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(g.queue) == 0 {
		select {
		case <-g.stopCh:
			return nil, false
		default:
		}
		g.notEmpty.Wait()
		select {
		case <-g.stopCh:
			return nil, false
		default:
		}
	}
	e := g.queue[0]
	g.queue = g.queue[1:]
	metrics.GatewayQueueDepth.Set(float64(len(g.queue)))
	return e, true
}

// waitBreakerClosed blocks while the breaker is open, returning once it is
// closed again (cool-down elapsed or manual reset). Returns false on stop.
func (g *Gateway) waitBreakerClosed() bool {
	for g.State() == StateOpen {
		g.mu.Lock()
		remaining := g.cfg.CoolDown - time.Since(g.openedAt)
		g.mu.Unlock()

		if remaining <= 0 {
			// Cool-down elapsed: close and let a probing batch through.
			g.failures.Store(0)
			g.state.Store(int32(StateClosed))
			metrics.GatewayBreakerOpen.Set(0)
			log.Info().Msg("[gateway] cool-down elapsed, circuit closed")
			return true
		}

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
		case <-g.resetCh:
			timer.Stop()
		case <-g.stopCh:
			timer.Stop()
			return false
		}
	}
	return true
}

// waitSpacing enforces MinInterval since the previous dispatch. Returns
// false on stop.
func (g *Gateway) waitSpacing() bool {
	wait := g.cfg.MinInterval - time.Since(g.lastDispatch)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	select {
	case <-timer.C:
		return true
	case <-g.stopCh:
		timer.Stop()
		return false
	}
}

func (g *Gateway) run(e *entry) {
	res, err := e.task(e.ctx)

	<-g.sem
	g.inFlight.Add(-1)
	g.record(err)

	e.done <- outcome{result: res, err: err}
}

// record feeds a task outcome into the breaker. A success decrements the
// failure counter (floored at zero) rather than zeroing it, so occasional
// failures amid mostly-healthy traffic never trip the breaker.
func (g *Gateway) record(err error) {
	if err == nil {
		for {
			cur := g.failures.Load()
			if cur == 0 {
				return
			}
			if g.failures.CompareAndSwap(cur, cur-1) {
				return
			}
		}
	}

	g.failed.Add(1)
	metrics.GatewayFailures.Inc()
	n := g.failures.Add(1)
	if int(n) >= g.cfg.FailureThreshold && g.State() == StateClosed {
		g.mu.Lock()
		g.openedAt = time.Now()
		g.mu.Unlock()
		g.state.Store(int32(StateOpen))
		metrics.GatewayBreakerOpen.Set(1)
		log.Warn().
			Int32("consecutiveFailures", n).
			Dur("coolDown", g.cfg.CoolDown).
			Msg("[gateway] circuit breaker opened")
	}
}
