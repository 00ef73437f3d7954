package transport

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxRetries      int
	Jitter          bool
	JitterFactor    float64
}

func DefaultBackoffConfig() *BackoffConfig {
	return &BackoffConfig{
		InitialInterval: 1 * time.Second,
		MaxInterval:     60 * time.Second,
		Multiplier:      2.0,
		MaxRetries:      10,
		Jitter:          true,
		JitterFactor:    0.2,
	}
}

func (bc *BackoffConfig) Validate() error {
	if bc.InitialInterval <= 0 {
		return ErrInvalidBackoffConfig
	}
	if bc.MaxInterval < bc.InitialInterval {
		return ErrInvalidBackoffConfig
	}
	if bc.Multiplier <= 0 {
		return ErrInvalidBackoffConfig
	}
	if bc.JitterFactor < 0 || bc.JitterFactor > 1 {
		return ErrInvalidBackoffConfig
	}
	return nil
}

type Backoff struct {
	config  *BackoffConfig
	attempt int
}

func NewBackoff(config *BackoffConfig) (*Backoff, error) {
	if config == nil {
		config = DefaultBackoffConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Backoff{config: config}, nil
}

func (b *Backoff) Next() (time.Duration, bool) {
	if b.config.MaxRetries > 0 && b.attempt >= b.config.MaxRetries {
		return 0, false
	}
	interval := b.calculate()
	b.attempt++
	return interval, true
}

func (b *Backoff) calculate() time.Duration {
	interval := float64(b.config.InitialInterval) * math.Pow(b.config.Multiplier, float64(b.attempt))
	if interval > float64(b.config.MaxInterval) {
		interval = float64(b.config.MaxInterval)
	}
	if b.config.Jitter {
		jitter := interval * b.config.JitterFactor
		interval = interval - jitter + (rand.Float64() * 2 * jitter)
	}
	return time.Duration(interval)
}

func (b *Backoff) Reset() {
	b.attempt = 0
}

func (b *Backoff) Attempt() int {
	return b.attempt
}

// Reconnector redials a single broker address with backoff between
// attempts and returns the resulting Conn; it does not build or run a
// Driver on it.
// There is no separate health-check hook: liveness for a single MQTT
// connection is already ProtocolState's job, surfaced through Service's
// ping/pong deadlines.
type Reconnector struct {
	backoff *Backoff
	addr    string
	connCfg *ConnConfig

	ctx    context.Context
	cancel context.CancelFunc
}

func NewReconnector(ctx context.Context, addr string, backoffCfg *BackoffConfig, connCfg *ConnConfig) (*Reconnector, error) {
	backoff, err := NewBackoff(backoffCfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Reconnector{
		backoff: backoff,
		addr:    addr,
		connCfg: connCfg,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Connect dials, retrying with backoff until success, context cancellation,
// or MaxRetries exhaustion.
func (r *Reconnector) Connect() (*Conn, error) {
	r.backoff.Reset()
	for {
		conn, err := Dial(r.ctx, r.addr, r.connCfg)
		if err == nil {
			return conn, nil
		}

		interval, ok := r.backoff.Next()
		if !ok {
			return nil, ErrMaxRetriesExceeded
		}

		select {
		case <-r.ctx.Done():
			return nil, r.ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Reconnector) Reset() {
	r.backoff.Reset()
}

func (r *Reconnector) Attempt() int {
	return r.backoff.Attempt()
}

func (r *Reconnector) Close() {
	r.cancel()
}
