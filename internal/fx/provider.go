// Package fx supplies the USD→KRW exchange rate used by every cost
// computation. The rate is resolved at startup from the persisted cache
// (falling back to a hardcoded snapshot), then refreshed from an external
// API on a fixed interval. A failed refresh keeps the stale rate; cost
// computations never block on the network.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackRate is the historical snapshot used when no cached rate
// exists yet (1 USD = 1423.50 KRW).
var FallbackRate = decimal.RequireFromString("1423.50")

// DefaultRefreshInterval is how often the provider refreshes the rate.
const DefaultRefreshInterval = 6 * time.Hour

var (
	ErrMissingRate = errors.New("rate response missing KRW rate")
	ErrInvalidRate = errors.New("rate must be a positive number")
)

// RateCache persists the last known rate across restarts. ok is false
// when no rate has ever been cached.
type RateCache interface {
	LoadRate(ctx context.Context) (rate decimal.Decimal, updatedAt time.Time, ok bool, err error)
	SaveRate(ctx context.Context, rate decimal.Decimal, updatedAt time.Time) error
}

// Provider holds the current USD→KRW rate and keeps it fresh.
type Provider struct {
	mu        sync.RWMutex
	rate      decimal.Decimal
	updatedAt time.Time

	cache    RateCache
	client   *http.Client
	apiURL   string
	interval time.Duration
}

// NewProvider resolves the initial rate (cache, then fallback) and returns
// a provider ready to serve CurrentRate. A cache read failure is logged
// and degrades to the fallback; it never prevents startup.
func NewProvider(ctx context.Context, cache RateCache, apiURL string, interval time.Duration) *Provider {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	p := &Provider{
		cache:    cache,
		client:   &http.Client{Timeout: 15 * time.Second},
		apiURL:   apiURL,
		interval: interval,
		rate:     FallbackRate,
	}

	if cache != nil {
		rate, updatedAt, ok, err := cache.LoadRate(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Failed to load cached exchange rate, using fallback",
				"error", err, "fallback_rate", FallbackRate)
		case ok:
			p.rate = rate
			p.updatedAt = updatedAt
			slog.InfoContext(ctx, "Loaded cached exchange rate",
				"rate", rate, "updated_at", updatedAt.Format(time.RFC3339))
		default:
			slog.InfoContext(ctx, "No cached exchange rate, using fallback",
				"fallback_rate", FallbackRate)
		}
	}
	return p
}

// CurrentRate returns the most recently known USD→KRW rate.
func (p *Provider) CurrentRate() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate
}

// LastUpdated returns when the current rate was fetched; zero when the
// rate is the hardcoded fallback.
func (p *Provider) LastUpdated() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}

// rateResponse is the shape of the external API answer: a JSON object
// with per-currency rates keyed by currency code.
type rateResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

// Refresh fetches a live rate and, on success, swaps it in and persists
// it with a timestamp. Any failure (network, malformed body, missing or
// non-positive rate) leaves the current rate untouched and is reported to
// the caller; nothing is partially applied.
func (p *Provider) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return fmt.Errorf("build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch exchange rate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read rate response: %w", err)
	}

	rate, err := parseKRWRate(body)
	if err != nil {
		return fmt.Errorf("parse rate response: %w", err)
	}

	now := time.Now().UTC()
	p.mu.Lock()
	p.rate = rate
	p.updatedAt = now
	p.mu.Unlock()

	if p.cache != nil {
		if err := p.cache.SaveRate(ctx, rate, now); err != nil {
			// The in-memory rate is already updated; a cache write
			// failure only costs persistence across restarts.
			slog.WarnContext(ctx, "Failed to persist exchange rate", "error", err)
		}
	}

	slog.InfoContext(ctx, "Exchange rate refreshed", "rate", rate)
	return nil
}

func parseKRWRate(body []byte) (decimal.Decimal, error) {
	var parsed rateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, err
	}
	num, ok := parsed.Rates["KRW"]
	if !ok {
		return decimal.Zero, ErrMissingRate
	}
	rate, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRate, num.String())
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, ErrInvalidRate
	}
	return rate, nil
}

// Run refreshes once at startup and then on the configured interval until
// the context is cancelled. Failures are logged and dropped; the next
// tick simply tries again with no backoff, which is acceptable for a
// low-stakes background refresh.
func (p *Provider) Run(ctx context.Context) error {
	if err := p.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial exchange rate refresh failed, keeping cached rate",
			"error", err, "rate", p.CurrentRate())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Exchange rate refresh failed, keeping stale rate",
					"error", err, "rate", p.CurrentRate())
			}
		}
	}
}
