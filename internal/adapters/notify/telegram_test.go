package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/internal/adapters/notify"
)

// fakeBotAPI responde getMe y sendMessage; falla los primeros failSends envíos.
func fakeBotAPI(t *testing.T, failSends int32, sent *atomic.Int32, lastText *atomic.Value) *httptest.Server {
	t.Helper()
	var calls atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"arbgate","username":"arbgate_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if calls.Add(1) <= failSends {
				w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
				return
			}
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "42", r.PostForm.Get("chat_id"))
			lastText.Store(r.PostForm.Get("text"))
			sent.Add(1)
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestTelegram_Alert(t *testing.T) {
	var sent atomic.Int32
	var text atomic.Value
	srv := fakeBotAPI(t, 0, &sent, &text)
	defer srv.Close()

	tg, err := notify.NewTelegram("TOKEN", "42", notify.WithEndpoint(srv.URL+"/bot%s/%s"))
	require.NoError(t, err)

	require.NoError(t, tg.Alert(context.Background(), "🤖 Kalshi trader: 1 trade(s) executed"))
	assert.Equal(t, int32(1), sent.Load())
	assert.Equal(t, "🤖 Kalshi trader: 1 trade(s) executed", text.Load())
}

func TestTelegram_AlertRetries(t *testing.T) {
	var sent atomic.Int32
	var text atomic.Value
	srv := fakeBotAPI(t, 2, &sent, &text)
	defer srv.Close()

	tg, err := notify.NewTelegram("TOKEN", "42",
		notify.WithEndpoint(srv.URL+"/bot%s/%s"),
		notify.WithRetries(3, time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, tg.Alert(context.Background(), "hello"))
	assert.Equal(t, int32(1), sent.Load())
}

func TestTelegram_AlertGivesUp(t *testing.T) {
	var sent atomic.Int32
	var text atomic.Value
	srv := fakeBotAPI(t, 10, &sent, &text)
	defer srv.Close()

	tg, err := notify.NewTelegram("TOKEN", "42",
		notify.WithEndpoint(srv.URL+"/bot%s/%s"),
		notify.WithRetries(2, time.Millisecond),
	)
	require.NoError(t, err)

	err = tg.Alert(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Zero(t, sent.Load())
}

func TestNewTelegram_InvalidChatID(t *testing.T) {
	_, err := notify.NewTelegram("TOKEN", "not-a-number")
	assert.ErrorContains(t, err, "invalid chat ID")
}
