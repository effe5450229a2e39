package fred_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/adapters/fred"
	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

func TestSeries_ChronologicalSkippingMissing(t *testing.T) {
	fixture, err := os.ReadFile("../../../testdata/fixtures/fred_cpi.json")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/fred/series/observations", r.URL.Path)
		assert.Equal(t, "CPIAUCSL", q.Get("series_id"))
		assert.Equal(t, "k", q.Get("api_key"))
		assert.Equal(t, "desc", q.Get("sort_order"))
		assert.Equal(t, "61", q.Get("limit"))
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	res := fred.NewClient(httpx.New(0), srv.URL, "k", "", 0).Series(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, "CPIAUCSL", res.Series)
	assert.Equal(t, []float64{100, 101, 100.495}, res.Values)

	changes := domain.PercentChanges(res.Values)
	require.Len(t, changes, 2)
	assert.InDelta(t, 1.0, changes[0], 1e-9)
	assert.InDelta(t, -0.5, changes[1], 1e-9)
}

func TestSeries_NoKey(t *testing.T) {
	res := fred.NewClient(httpx.New(0), "", "", "", 0).Series(context.Background())
	assert.False(t, res.OK())
	assert.Empty(t, res.Values)
}
