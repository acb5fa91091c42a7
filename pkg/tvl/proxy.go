package tvl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rollups-terminal/rollupsx/pkg/upstream"
)

// TargetProxy labels proxy upstream calls in metrics.
const TargetProxy = "tvl_proxy"

// DefaultUpstreamURL is L2Beat's tRPC chart endpoint.
const DefaultUpstreamURL = "https://l2beat.com/api/trpc/tvl.chart"

var (
	ErrProjectIDRequired = errors.New("projectId is required")
	ErrInvalidPayload    = errors.New("upstream payload is not JSON")
)

// PayloadCache stores raw upstream payloads by key.
type PayloadCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Proxy fetches TVL chart payloads from the aggregator on behalf of browsers.
type Proxy struct {
	client      *upstream.Client
	upstreamURL string
	timeout     time.Duration
	cache       PayloadCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithCache enables payload caching. A nil cache or non-positive ttl leaves caching off.
func WithCache(cache PayloadCache, ttl time.Duration) ProxyOption {
	return func(p *Proxy) {
		if cache == nil || ttl <= 0 {
			return
		}
		p.cache = cache
		p.cacheTTL = ttl
	}
}

// NewProxy returns a Proxy for upstreamURL (DefaultUpstreamURL when empty).
func NewProxy(client *upstream.Client, upstreamURL string, timeout time.Duration, logger *zap.Logger, opts ...ProxyOption) *Proxy {
	if upstreamURL == "" {
		upstreamURL = DefaultUpstreamURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Proxy{
		client:      client,
		upstreamURL: upstreamURL,
		timeout:     timeout,
		logger:      logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Fetch returns the upstream chart payload for projectID.
func (p *Proxy) Fetch(ctx context.Context, projectID string) ([]byte, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, ErrProjectIDRequired
	}

	key := "tvl:" + projectID
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, key)
		switch {
		case err != nil:
			p.logger.Warn("tvl cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			return cached, nil
		}
	}

	target, err := BuildUpstreamURL(p.upstreamURL, projectID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := p.client.GetRaw(callCtx, TargetProxy, target)
	if err != nil {
		return nil, fmt.Errorf("fetch tvl for %s: %w", projectID, err)
	}
	if !json.Valid(body) {
		return nil, ErrInvalidPayload
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, body, p.cacheTTL); err != nil {
			p.logger.Warn("tvl cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return body, nil
}

type chartFilter struct {
	Type       string   `json:"type"`
	ProjectIDs []string `json:"projectIds"`
}

type chartQuery struct {
	Filter                  chartFilter `json:"filter"`
	Range                   string      `json:"range"`
	ExcludeAssociatedTokens bool        `json:"excludeAssociatedTokens"`
}

type chartInput struct {
	JSON chartQuery `json:"json"`
}

// BuildUpstreamURL encodes a single-project, max-range chart query onto base.
func BuildUpstreamURL(base, projectID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse tvl upstream url: %w", err)
	}

	input, err := json.Marshal(map[string]chartInput{
		"0": {JSON: chartQuery{
			Filter: chartFilter{Type: "projects", ProjectIDs: []string{projectID}},
			Range:  "max",
		}},
	})
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("batch", "1")
	q.Set("input", string(input))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
