package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaanturkoglu/SIVAP/internal/data/cache"
)

const indexCSV = "Yıl,Ocak,Şubat,Mart,Nisan,Mayıs,Haziran,Temmuz,Ağustos,Eylül,Ekim,Kasım,Aralık\n" +
	"2020,100,102,104,106,108,110,112,114,116,118,120,122\n"

func testConfig(url string) PriceIndexConfig {
	return PriceIndexConfig{
		URL:            url,
		Timeout:        2 * time.Second,
		CacheTTL:       time.Minute,
		RequestsPerSec: 100,
		Burst:          10,
	}
}

func TestFetch_ParsesRemoteTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexCSV))
	}))
	defer srv.Close()

	p := NewPriceIndexProvider(testConfig(srv.URL), cache.New())

	idx, err := p.Fetch(context.Background())
	require.NoError(t, err)

	latest, ok := idx.Latest()
	require.True(t, ok)
	assert.Equal(t, 122.0, latest)
}

func TestFetch_ServesFromCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(indexCSV))
	}))
	defer srv.Close()

	p := NewPriceIndexProvider(testConfig(srv.URL), cache.New())

	_, err := p.Fetch(context.Background())
	require.NoError(t, err)
	_, err = p.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second fetch hits the cache")
}

func TestFetch_HTTPErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewPriceIndexProvider(testConfig(srv.URL), cache.New())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetch_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPriceIndexProvider(testConfig(srv.URL), cache.New())

	for i := 0; i < 3; i++ {
		_, err := p.Fetch(context.Background())
		require.Error(t, err)
	}

	// Fourth attempt is rejected by the open breaker without a request.
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestFetch_NoURLConfigured(t *testing.T) {
	p := NewPriceIndexProvider(PriceIndexConfig{}, cache.New())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetch_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not,a,price,index\nfoo,bar\n"))
	}))
	defer srv.Close()

	p := NewPriceIndexProvider(testConfig(srv.URL), cache.New())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
}
