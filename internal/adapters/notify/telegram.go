package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implementa ports.Alerter enviando mensajes de texto plano a un chat.
type Telegram struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

// TelegramOption configura el cliente.
type TelegramOption func(*telegramOptions)

type telegramOptions struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// WithEndpoint cambia la URL de la Bot API (formato "…/bot%s/%s"). Para tests.
func WithEndpoint(endpoint string) TelegramOption {
	return func(o *telegramOptions) { o.endpoint = endpoint }
}

// WithRetries configura reintentos con backoff lineal.
func WithRetries(n int, delay time.Duration) TelegramOption {
	return func(o *telegramOptions) {
		o.maxRetries = n
		o.retryDelay = delay
	}
}

// NewTelegram valida el token (getMe) y el chat ID.
func NewTelegram(token, chatID string, opts ...TelegramOption) (*Telegram, error) {
	o := telegramOptions{
		endpoint:   tgbotapi.APIEndpoint,
		client:     &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: invalid chat ID %q: %w", chatID, err)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: create bot: %w", err)
	}
	if o.maxRetries <= 0 {
		o.maxRetries = 1
	}

	return &Telegram{bot: bot, chatID: id, maxRetries: o.maxRetries, retryDelay: o.retryDelay}, nil
}

// Alert envía el texto con reintentos; se corta si ctx se cancela.
func (t *Telegram) Alert(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("notify.Telegram.Alert: failed after %d attempts: %w", t.maxRetries, lastErr)
}
