package kalshi_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/adapters/kalshi"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

var fixedNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return b
}

func eventsServer(t *testing.T) *httptest.Server {
	t.Helper()
	p1 := fixture(t, "kalshi_events_page1.json")
	p2 := fixture(t, "kalshi_events_page2.json")
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "true", r.URL.Query().Get("with_nested_markets"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "page-2" {
			_, _ = w.Write(p2)
			return
		}
		_, _ = w.Write(p1)
	}))
}

func TestFetch_FiltersAndPaginates(t *testing.T) {
	srv := eventsServer(t)
	defer srv.Close()

	c := kalshi.NewClient(httpx.New(0), srv.URL, kalshi.WithClock(func() time.Time { return fixedNow }))
	res := c.Fetch(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, "kalshi", res.Source)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Records, 2)

	fed := res.Records[0]
	assert.Equal(t, "KXFED-26MAR-C25", fed.Key)
	assert.Equal(t, 80.0, fed.Yes)
	assert.Equal(t, 18.0, fed.No)
	assert.Equal(t, int64(52000), fed.Volume)
	assert.Equal(t, "Economics", fed.Category)
	require.NotNil(t, fed.CloseTime)

	cpi := res.Records[1]
	assert.Equal(t, "KXCPI-26JAN-T0.3", cpi.Key)
	assert.Equal(t, 44.0, cpi.Yes, "sin bid usa last_price")
	assert.Equal(t, 56.0, cpi.No)
	assert.Equal(t, "will cpi rise more than 03 in january 2026", cpi.NormalizedTitle)
}

func TestFetch_DegradedOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := kalshi.NewClient(httpx.New(0), srv.URL).Fetch(context.Background())
	assert.False(t, res.OK())
	assert.Empty(t, res.Records)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, 503, httpx.StatusCode(res.Err))
}

func TestFindTicker(t *testing.T) {
	srv := eventsServer(t)
	defer srv.Close()
	c := kalshi.NewClient(httpx.New(0), srv.URL, kalshi.WithClock(func() time.Time { return fixedNow }))

	ticker, err := c.FindTicker(context.Background(), "Who will win the 2028 presidential election?")
	require.NoError(t, err)
	assert.Equal(t, "KXPRES-28-DJT", ticker)

	_, err = c.FindTicker(context.Background(), "Will it snow in Miami?")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// verifySignature comprueba la firma RSA-PSS de una request firmada.
func verifySignature(t *testing.T, pub *rsa.PublicKey, r *http.Request) {
	t.Helper()
	assert.Equal(t, "key-123", r.Header.Get("KALSHI-ACCESS-KEY"))
	ts := r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
	sig, err := base64.StdEncoding.DecodeString(r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
	assert.NoError(t, err)
	hash := sha256.Sum256([]byte(ts + r.Method + r.URL.Path))
	assert.NoError(t, rsa.VerifyPSS(pub, crypto.SHA256, hash[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}))
}

func TestPortfolio_SignedRequests(t *testing.T) {
	key := testKey(t)
	positions := fixture(t, "kalshi_positions.json")

	var placed map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, &key.PublicKey, r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/portfolio/balance":
			_, _ = w.Write([]byte(`{"balance": 4210, "portfolio_value": 1240}`))
		case "/portfolio/positions":
			_, _ = w.Write(positions)
		case "/portfolio/orders":
			placed = map[string]any{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&placed))
			_, _ = w.Write([]byte(`{"order": {"order_id": "ord-1", "status": "resting"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := kalshi.NewClient(httpx.New(0), srv.URL, kalshi.WithCredentials("key-123", key))
	ctx := context.Background()

	acct, err := c.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4210), acct.CashCents)

	holdings, err := c.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, domain.SideNo, holdings[1].Side())
	assert.Equal(t, int64(960), holdings[0].ExposureCents)

	rcpt, err := c.PlaceOrder(ctx, domain.OrderRequest{
		Ticker: "KXFED-26MAR-C25", Side: domain.SideNo, Action: domain.ActionBuy, Count: 5, Price: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", rcpt.OrderID)
	assert.Equal(t, "no", placed["side"])
	assert.Equal(t, "buy", placed["action"])
	assert.Equal(t, "limit", placed["type"])
	assert.EqualValues(t, 20, placed["no_price"])
	assert.NotContains(t, placed, "yes_price")
	assert.NotEmpty(t, placed["client_order_id"])

	_, err = c.ClosePosition(ctx, domain.ExitAction{
		Ticker: "KXFED-26MAR-C25", Side: domain.SideYes, Count: 12, CurrentPrice: 16.6,
	})
	require.NoError(t, err)
	assert.Equal(t, "sell", placed["action"])
	assert.EqualValues(t, 17, placed["yes_price"])
	assert.EqualValues(t, 12, placed["count"])
}

func TestPlaceOrder_RejectedOn4xx(t *testing.T) {
	key := testKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "insufficient_balance", "message": "insufficient balance"}}`))
	}))
	defer srv.Close()

	c := kalshi.NewClient(httpx.New(0), srv.URL, kalshi.WithCredentials("key-123", key))
	_, err := c.PlaceOrder(context.Background(), domain.OrderRequest{Ticker: "X", Side: domain.SideYes, Action: domain.ActionBuy, Count: 1, Price: 40})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestPortfolio_RequiresCredentials(t *testing.T) {
	c := kalshi.NewClient(httpx.New(0), "http://127.0.0.1:1")
	_, err := c.Account(context.Background())
	assert.ErrorIs(t, err, kalshi.ErrNoCredentials)
}

func TestParsePrivateKey(t *testing.T) {
	key := testKey(t)

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	got, err := kalshi.ParsePrivateKey(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	got, err = kalshi.ParsePrivateKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	_, err = kalshi.ParsePrivateKey([]byte("not a key"))
	assert.Error(t, err)
}
