// Package providers wraps the pipeline's only external data dependency, the
// published consumer-price-index table, behind a rate-limited, circuit-broken
// HTTP client. Failures here degrade to "no inflation adjustment" and never
// abort a run.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Kaanturkoglu/SIVAP/internal/data"
	"github.com/Kaanturkoglu/SIVAP/internal/data/cache"
	"github.com/Kaanturkoglu/SIVAP/internal/domain/pricing"
	httpiface "github.com/Kaanturkoglu/SIVAP/internal/interfaces/http"
)

const cacheKey = "priceindex:table"

// PriceIndexConfig configures the fetcher.
type PriceIndexConfig struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RequestsPerSec float64       `yaml:"requests_per_sec"`
	Burst          int           `yaml:"burst"`
}

// DefaultPriceIndexConfig returns conservative fetch settings.
func DefaultPriceIndexConfig() PriceIndexConfig {
	return PriceIndexConfig{
		Timeout:        15 * time.Second,
		CacheTTL:       24 * time.Hour,
		RequestsPerSec: 1,
		Burst:          1,
	}
}

// PriceIndexProvider fetches and parses the index table.
type PriceIndexProvider struct {
	cfg     PriceIndexConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cache   cache.Cache
}

// NewPriceIndexProvider wires the client, limiter, breaker and cache.
func NewPriceIndexProvider(cfg PriceIndexConfig, c cache.Cache) *PriceIndexProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultPriceIndexConfig().Timeout
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
	if c == nil {
		c = cache.New()
	}
	return &PriceIndexProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "priceindex",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
			},
		}),
		cache: c,
	}
}

// Fetch returns the parsed index table, serving from cache when warm. Any
// network, HTTP or parse failure returns an error the caller is expected to
// swallow into a pass-through adjustment.
func (p *PriceIndexProvider) Fetch(ctx context.Context) (*pricing.PriceIndex, error) {
	if raw, err := p.cache.Get(ctx, cacheKey); err == nil {
		idx, err := data.ParsePriceIndex(raw)
		if err == nil {
			httpiface.Metrics().CacheHits.WithLabelValues("priceindex").Inc()
			log.Debug().Msg("price index served from cache")
			return idx, nil
		}
	}
	httpiface.Metrics().CacheMisses.WithLabelValues("priceindex").Inc()

	if p.cfg.URL == "" {
		return nil, fmt.Errorf("no price index URL configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.download(ctx)
	})
	if err != nil {
		return nil, err
	}
	raw := result.([]byte)

	idx, err := data.ParsePriceIndex(raw)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, cacheKey, raw, p.cfg.CacheTTL); err != nil {
		log.Warn().Err(err).Msg("price index cache write failed")
	}
	if latest, ok := idx.Latest(); ok {
		log.Info().Float64("latest_index", latest).Msg("price index fetched")
	}
	return idx, nil
}

func (p *PriceIndexProvider) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price index fetch failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price index fetch returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
