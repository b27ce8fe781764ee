package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// FallbackRate is used until a live rate has been fetched.
	FallbackRate = 1470.0
	// CacheKey stores the last good rate in kv storage.
	CacheKey = "exchange_rate:USD:IQD"
	// Freshness is how long a cached rate is trusted at startup.
	Freshness = 24 * time.Hour

	fetchTimeout = 10 * time.Second
)

// Rate sources reported in Snapshot.
const (
	SourceFallback = "fallback"
	SourceCache    = "cache"
	SourceLive     = "live"
)

// ErrNoSource is returned by Refresh when no fetcher is configured.
var ErrNoSource = errors.New("no exchange rate source configured")

// Fetcher returns the current IQD per USD rate.
type Fetcher interface {
	Fetch(ctx context.Context) (float64, error)
}

// APIFetcher reads conversion_rates.IQD from an exchangerate-api style
// endpoint.
type APIFetcher struct {
	URL    string
	Client *http.Client
}

// NewAPIFetcher builds the fetcher for apiKey. Without a key it returns a
// nil Fetcher so the provider stays on the fallback rate.
func NewAPIFetcher(baseURL, apiKey string) Fetcher {
	if apiKey == "" {
		return nil
	}
	return &APIFetcher{
		URL:    fmt.Sprintf("%s/%s/latest/USD", baseURL, apiKey),
		Client: &http.Client{Timeout: fetchTimeout},
	}
}

func (f *APIFetcher) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch exchange rate: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read exchange rate: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return 0, errors.New("exchange rate: invalid json")
	}
	if res := gjson.GetBytes(body, "result"); res.Exists() && res.String() != "success" {
		return 0, fmt.Errorf("exchange rate: result %q", res.String())
	}
	rate := gjson.GetBytes(body, "conversion_rates.IQD")
	if rate.Type != gjson.Number || rate.Float() <= 0 {
		return 0, errors.New("exchange rate: conversion_rates.IQD missing")
	}
	return rate.Float(), nil
}

// Snapshot is the rate currently in use.
type Snapshot struct {
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
	Source    string    `json:"source"`
}

// Provider holds the last good rate. Rate never blocks on the network.
type Provider struct {
	fetcher  Fetcher
	storage  kv.Storage
	fallback float64
	log      logrus.FieldLogger
	now      func() time.Time
	observe  func(error)

	mu   sync.RWMutex
	snap Snapshot
}

// NewProvider starts at the fallback rate. fetcher may be nil.
func NewProvider(fetcher Fetcher, storage kv.Storage, fallback float64, log logrus.FieldLogger) *Provider {
	if fallback <= 0 {
		fallback = FallbackRate
	}
	return &Provider{
		fetcher:  fetcher,
		storage:  storage,
		fallback: fallback,
		log:      log,
		now:      time.Now,
		snap:     Snapshot{Rate: fallback, Source: SourceFallback},
	}
}

// Rate returns the IQD per USD rate in use.
func (p *Provider) Rate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap.Rate
}

// Snapshot returns the rate with its provenance.
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Observe registers fn to be called with the result of every fetch.
func (p *Provider) Observe(fn func(error)) { p.observe = fn }

// Format renders amount in code at the current rate.
func (p *Provider) Format(amount float64, code Code) string {
	return Format(amount, code, p.Rate())
}

// Refresh fetches a new rate. On failure the previous rate is kept.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.fetcher == nil {
		return ErrNoSource
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	rate, err := p.fetcher.Fetch(ctx)
	if p.observe != nil {
		p.observe(err)
	}
	if err != nil {
		p.log.WithError(err).WithField("rate", p.Rate()).Warn("exchange rate refresh failed, keeping last rate")
		return err
	}
	snap := Snapshot{Rate: rate, FetchedAt: p.now().UTC(), Source: SourceLive}
	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()
	if p.storage != nil {
		raw, _ := json.Marshal(snap)
		if err := p.storage.Set(ctx, CacheKey, raw, Freshness); err != nil {
			p.log.WithError(err).Warn("cache exchange rate")
		}
	}
	return nil
}

// Warm uses a fresh cached rate when there is one, otherwise refreshes.
func (p *Provider) Warm(ctx context.Context) {
	if p.storage != nil {
		if raw, err := p.storage.Get(ctx, CacheKey); err == nil {
			var snap Snapshot
			if json.Unmarshal(raw, &snap) == nil && snap.Rate > 0 && p.now().Sub(snap.FetchedAt) < Freshness {
				snap.Source = SourceCache
				p.mu.Lock()
				p.snap = snap
				p.mu.Unlock()
				return
			}
		}
	}
	if err := p.Refresh(ctx); err != nil && !errors.Is(err, ErrNoSource) {
		p.log.WithError(err).Warn("initial exchange rate fetch failed, using fallback")
	}
}

// Start refreshes on schedule (cron syntax, e.g. "@every 1h") until the
// returned stop function is called.
func (p *Provider) Start(ctx context.Context, schedule string) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { _ = p.Refresh(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule exchange rate refresh %q: %w", schedule, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
