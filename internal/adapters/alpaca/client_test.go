package alpaca_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/adapters/alpaca"
	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return b
}

type fakeAlpaca struct {
	orders    []map[string]any
	orderCode int
	snapshots []byte
	positions []byte
}

func (f *fakeAlpaca) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/clock":
			_, _ = w.Write([]byte(`{"timestamp":"2026-03-02T10:31:00-05:00","is_open":true,"next_open":"2026-03-03T09:30:00-05:00","next_close":"2026-03-02T16:00:00-05:00"}`))
		case "/v2/account":
			_, _ = w.Write([]byte(`{"cash":"512.34","equity":"1024.68","buying_power":"1024.68"}`))
		case "/v2/positions":
			_, _ = w.Write(f.positions)
		case "/v2/stocks/snapshots":
			assert.Equal(t, "NVDA,SPY,DELISTED", r.URL.Query().Get("symbols"))
			_, _ = w.Write(f.snapshots)
		case "/v2/orders":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.orders = append(f.orders, body)
			if f.orderCode != 0 {
				w.WriteHeader(f.orderCode)
				_, _ = w.Write([]byte(`{"code":42210000,"message":"order rejected"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"ord-9","status":"accepted"}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T, f *fakeAlpaca) *alpaca.Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return alpaca.NewClient(httpx.New(0), srv.URL, srv.URL, "key", "secret")
}

func TestClient_AccountClockPositions(t *testing.T) {
	f := &fakeAlpaca{positions: fixture(t, "alpaca_positions.json")}
	c := newTestClient(t, f)
	ctx := context.Background()

	clock, err := c.Clock(ctx)
	require.NoError(t, err)
	assert.True(t, clock.IsOpen)

	acct, err := c.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, "512.34", acct.Cash.String())
	assert.Equal(t, "1024.68", acct.Equity.String())

	pos, err := c.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, pos, 2)
	assert.Equal(t, "TSLA", pos[0].Symbol)
	assert.InDelta(t, -0.034, pos[0].UnrealizedPLPct, 1e-12)
	assert.Equal(t, "0.4821", pos[1].Qty.String())
}

func TestClient_Snapshots(t *testing.T) {
	f := &fakeAlpaca{snapshots: fixture(t, "alpaca_snapshots.json")}
	snaps, err := newTestClient(t, f).Snapshots(context.Background(), []string{"NVDA", "SPY", "DELISTED"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	nvda := snaps[0]
	assert.Equal(t, "NVDA", nvda.Symbol)
	assert.Equal(t, 144.2, nvda.Price)
	assert.Equal(t, 138.5, nvda.PrevClose)
	assert.Equal(t, 142.3, nvda.VWAP)

	sigs := domain.ScanMomentum(snaps, domain.DefaultMomentumParams())
	require.Len(t, sigs, 1)
	assert.Equal(t, "NVDA", sigs[0].Symbol)
	assert.Equal(t, domain.MomentumUp, sigs[0].Kind)
}

func TestBracket_WholeSharesWithExits(t *testing.T) {
	f := &fakeAlpaca{}
	c := newTestClient(t, f)

	rcpt, err := c.Bracket().Submit(context.Background(), domain.EquityOrder{
		Symbol:        "NVDA",
		Notional:      decimal.RequireFromString("507.34"),
		RefPrice:      decimal.RequireFromString("144.20"),
		StopLossPct:   -0.03,
		TakeProfitPct: 0.06,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-9", rcpt.OrderID)

	require.Len(t, f.orders, 1)
	o := f.orders[0]
	assert.Equal(t, "3", o["qty"])
	assert.Equal(t, "bracket", o["order_class"])
	assert.Equal(t, map[string]any{"limit_price": "152.85"}, o["take_profit"])
	assert.Equal(t, map[string]any{"stop_price": "139.87"}, o["stop_loss"])
	assert.NotContains(t, o, "notional")
}

func TestBracket_UnsupportedBelowOneShare(t *testing.T) {
	f := &fakeAlpaca{}
	_, err := newTestClient(t, f).Bracket().Submit(context.Background(), domain.EquityOrder{
		Symbol:   "META",
		Notional: decimal.NewFromInt(50),
		RefPrice: decimal.NewFromInt(700),
	})
	assert.ErrorIs(t, err, domain.ErrStrategyUnsupported)
	assert.Empty(t, f.orders, "no llega al broker")
}

func TestSubmit_RejectionIs4xxOnly(t *testing.T) {
	order := domain.EquityOrder{Symbol: "SOFI", Notional: decimal.RequireFromString("20.004")}

	f := &fakeAlpaca{orderCode: http.StatusUnprocessableEntity}
	_, err := newTestClient(t, f).Simple().Submit(context.Background(), order)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	assert.Equal(t, "20", f.orders[0]["notional"])

	f = &fakeAlpaca{orderCode: http.StatusInternalServerError}
	_, err = newTestClient(t, f).Simple().Submit(context.Background(), order)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOrderRejected)
}

func TestClosePosition_SellsFullQty(t *testing.T) {
	f := &fakeAlpaca{}
	_, err := newTestClient(t, f).ClosePosition(context.Background(), domain.EquityPosition{
		Symbol: "AMD", Qty: decimal.RequireFromString("0.4821"),
	})
	require.NoError(t, err)
	require.Len(t, f.orders, 1)
	assert.Equal(t, "sell", f.orders[0]["side"])
	assert.Equal(t, "0.4821", f.orders[0]["qty"])
	assert.Equal(t, "market", f.orders[0]["type"])
}
