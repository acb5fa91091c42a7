package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rollups-terminal/rollupsx/pkg/metrics"
	"github.com/rollups-terminal/rollupsx/pkg/utils"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

var (
	// ErrInvalidURL is returned before any network activity when a URL has no http(s) scheme or host.
	ErrInvalidURL = errors.New("invalid upstream url")
	// ErrBreakerOpen is returned while the circuit-breaker for a request target is open.
	ErrBreakerOpen = errors.New("circuit breaker open")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http %d", e.Code) }

// Client is an http.Client wrapper with a token-bucket per upstream host and a circuit-breaker
// per request target.
// It never retries: one call is one attempt.
type Client struct {
	client *http.Client

	rps   rate.Limit
	burst int

	limiters *xsync.Map[string, *rate.Limiter]
	breakers *xsync.Map[string, *gobreaker.CircuitBreaker]

	breakerFailures uint32
	breakerCooldown time.Duration

	metrics *metrics.Registry
	logger  *zap.Logger
}

// Opts is the set of options for a new Client.
type Opts struct {
	Timeout         time.Duration
	RPS             float64
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
	Metrics         *metrics.Registry
	Logger          *zap.Logger
}

// New creates a new Client with the given options.
func New(o Opts) *Client {
	if o.RPS <= 0 {
		o.RPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 40
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.BreakerFailures <= 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	return &Client{
		client:          client,
		rps:             rate.Limit(o.RPS),
		burst:           o.Burst,
		limiters:        xsync.NewMap[string, *rate.Limiter](),
		breakers:        xsync.NewMap[string, *gobreaker.CircuitBreaker](),
		breakerFailures: uint32(o.BreakerFailures),
		breakerCooldown: o.BreakerCooldown,
		metrics:         o.Metrics,
		logger:          o.Logger,
	}
}

// limiter returns the token-bucket for a host, creating it on first use.
func (c *Client) limiter(host string) *rate.Limiter {
	if l, ok := c.limiters.Load(host); ok {
		return l
	}
	l, _ := c.limiters.LoadOrStore(host, rate.NewLimiter(c.rps, c.burst))
	return l
}

// breakerKey names the breaker guarding one request target. Rows never share a target, so a
// failing project id or explorer cannot trip the breaker for its neighbours.
func breakerKey(u *url.URL) string {
	return u.Host + u.EscapedPath() + "?" + u.Query().Encode()
}

// breaker returns the circuit-breaker for a target, creating it on first use.
func (c *Client) breaker(key string) *gobreaker.CircuitBreaker {
	if b, ok := c.breakers.Load(key); ok {
		return b
	}
	threshold := c.breakerFailures
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx answers mean the target is up; only transport errors and 5xx count against it.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("upstream breaker state change",
				zap.String("target", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	b, _ = c.breakers.LoadOrStore(key, b)
	return b
}

// GetJSON issues a GET and decodes a 2xx JSON body into out. target labels the call in metrics.
func (c *Client) GetJSON(ctx context.Context, target, rawURL string, out any) error {
	start := time.Now()
	body, err := c.get(ctx, rawURL)
	if err != nil {
		c.metrics.ObserveUpstream(target, outcomeOf(err), time.Since(start))
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			c.metrics.ObserveUpstream(target, metrics.OutcomeDecode, time.Since(start))
			return fmt.Errorf("decode %s: %w", target, err)
		}
	}
	c.metrics.ObserveUpstream(target, metrics.OutcomeOK, time.Since(start))
	return nil
}

// GetRaw issues a GET and returns the 2xx body untouched.
func (c *Client) GetRaw(ctx context.Context, target, rawURL string) ([]byte, error) {
	start := time.Now()
	body, err := c.get(ctx, rawURL)
	if err != nil {
		c.metrics.ObserveUpstream(target, outcomeOf(err), time.Since(start))
		return nil, err
	}
	c.metrics.ObserveUpstream(target, metrics.OutcomeOK, time.Since(start))
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return nil, err
	}

	key := breakerKey(u)
	res, err := c.breaker(key).Execute(func() (interface{}, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Accept", "application/json")

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// From here on, always drain+close the body before returning.
		defer func() { _ = utils.DrainAndClose(resp.Body) }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Code: resp.StatusCode}
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, key)
		}
		return nil, err
	}
	return res.([]byte), nil
}

func outcomeOf(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrBreakerOpen):
		return metrics.OutcomeBreakerOpen
	case errors.As(err, &se):
		return metrics.OutcomeStatus
	default:
		return metrics.OutcomeError
	}
}
