package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/adapters/polymarket"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

func TestFetch_ParsesOutcomePrices(t *testing.T) {
	fixture, err := os.ReadFile("../../../testdata/fixtures/polymarket_markets.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("closed"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	res := polymarket.NewClient(httpx.New(0), srv.URL).Fetch(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Records, 2)

	fed := res.Records[0]
	assert.Equal(t, domain.SourcePolymarket, fed.SourceID)
	assert.Equal(t, "fed rate cut in march 2026", fed.Key)
	assert.Equal(t, "Fed rate cut in March 2026?", fed.RawTitle)
	assert.Equal(t, 62.0, fed.Yes)
	assert.Equal(t, 38.0, fed.No)
	assert.Equal(t, int64(1843021), fed.Volume)
	require.NotNil(t, fed.CloseTime)
	assert.Equal(t, 18, fed.CloseTime.Day())

	btc := res.Records[1]
	assert.Equal(t, 21.5, btc.Yes)
	assert.Equal(t, 78.5, btc.No)
}

func TestFetch_Degraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	res := polymarket.NewClient(httpx.New(0), srv.URL).Fetch(context.Background())
	assert.False(t, res.OK())
	assert.Equal(t, "polymarket", res.Source)
	assert.Error(t, res.Err)
}
