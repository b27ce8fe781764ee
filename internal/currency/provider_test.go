package currency

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/diewo77/client-ledger/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	rate float64
	err  error
	n    int
}

func (s *stubFetcher) Fetch(context.Context) (float64, error) {
	s.n++
	return s.rate, s.err
}

func TestAPIFetcher(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    float64
		wantErr bool
	}{
		{"ok", 200, `{"result":"success","base_code":"USD","conversion_rates":{"USD":1,"IQD":1310.25}}`, 1310.25, false},
		{"api error", 200, `{"result":"error","error-type":"invalid-key"}`, 0, true},
		{"missing rate", 200, `{"result":"success","conversion_rates":{"USD":1}}`, 0, true},
		{"rate as string", 200, `{"conversion_rates":{"IQD":"1310"}}`, 0, true},
		{"not json", 200, `<html>`, 0, true},
		{"server error", 500, `{}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v6/key123/latest/USD", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewAPIFetcher(srv.URL+"/v6", "key123")
			got, err := f.Fetch(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAPIFetcher_NoKey(t *testing.T) {
	assert.Nil(t, NewAPIFetcher("https://example.test", ""))
}

func TestProvider_FallbackUntilFetched(t *testing.T) {
	p := NewProvider(nil, nil, 0, logging.Discard())
	assert.Equal(t, FallbackRate, p.Rate())
	assert.Equal(t, SourceFallback, p.Snapshot().Source)
	assert.ErrorIs(t, p.Refresh(context.Background()), ErrNoSource)
	assert.Equal(t, "1,470,000 IQD", p.Format(1000, IQD))
}

func TestProvider_RefreshKeepsLastGoodRate(t *testing.T) {
	storage := kv.NewMemory()
	f := &stubFetcher{rate: 1300}
	p := NewProvider(f, storage, FallbackRate, logging.Discard())

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 1300.0, p.Rate())
	assert.Equal(t, SourceLive, p.Snapshot().Source)

	raw, err := storage.Get(context.Background(), CacheKey)
	require.NoError(t, err)
	var cached Snapshot
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, 1300.0, cached.Rate)

	f.err = errors.New("timeout")
	assert.Error(t, p.Refresh(context.Background()))
	assert.Equal(t, 1300.0, p.Rate(), "failed refresh keeps the last rate")
}

func TestProvider_WarmUsesFreshCache(t *testing.T) {
	storage := kv.NewMemory()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	raw, _ := json.Marshal(Snapshot{Rate: 1320, FetchedAt: now.Add(-time.Hour), Source: SourceLive})
	require.NoError(t, storage.Set(context.Background(), CacheKey, raw, 0))

	f := &stubFetcher{rate: 1400}
	p := NewProvider(f, storage, FallbackRate, logging.Discard())
	p.now = func() time.Time { return now }
	p.Warm(context.Background())
	assert.Equal(t, 1320.0, p.Rate())
	assert.Equal(t, SourceCache, p.Snapshot().Source)
	assert.Zero(t, f.n, "fresh cache avoids a network call")

	p.now = func() time.Time { return now.Add(Freshness) }
	p.Warm(context.Background())
	assert.Equal(t, 1400.0, p.Rate())
	assert.Equal(t, 1, f.n)
}

func TestProvider_Start(t *testing.T) {
	p := NewProvider(&stubFetcher{rate: 1}, nil, FallbackRate, logging.Discard())
	_, err := p.Start(context.Background(), "not a schedule")
	assert.Error(t, err)

	stop, err := p.Start(context.Background(), "@every 1h")
	require.NoError(t, err)
	stop()
}
