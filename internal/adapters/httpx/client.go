// Package httpx es el cliente HTTP compartido por todas las fuentes y brokers:
// un intento por llamada, timeout por cliente y rate limiting por host.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 15 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 30 * time.Second

	defaultRatePerSec = 10
	defaultBurst      = 5

	maxErrorBody = 512
)

// StatusError es una respuesta no-2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// IsClientError indica si err es un 4xx.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}

// StatusCode extrae el código HTTP de err, o 0 si no es un StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// RequestOption modifica la request antes de enviarla (headers, firma...).
type RequestOption func(*http.Request) error

// WithHeader añade un header fijo.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) error {
		r.Header.Set(key, value)
		return nil
	}
}

// Client hace requests JSON sin retries. Un fallo degrada la fuente para este run.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    []RequestOption
}

// Option configura el Client.
type Option func(*Client)

// WithRate fija el rate limit en requests/segundo.
func WithRate(perSec float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSec), burst) }
}

// WithDefaults añade opciones aplicadas a todas las requests.
func WithDefaults(opts ...RequestOption) Option {
	return func(c *Client) { c.opts = append(c.opts, opts...) }
}

// WithHTTPClient sustituye el http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// ClampTimeout ajusta d al rango admitido; 0 devuelve el default.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// New crea un Client con el timeout dado (ajustado a 10–30 s).
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: ClampTimeout(timeout)},
		limiter: rate.NewLimiter(defaultRatePerSec, defaultBurst),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get hace un GET y decodifica la respuesta JSON en out.
func (c *Client) Get(ctx context.Context, url string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, url, nil, out, opts...)
}

// Post hace un POST JSON y decodifica la respuesta en out (puede ser nil).
func (c *Client) Post(ctx context.Context, url string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, url, body, out, opts...)
}

// Delete hace un DELETE y decodifica la respuesta en out (puede ser nil).
func (c *Client) Delete(ctx context.Context, url string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, url, nil, out, opts...)
}

// Do ejecuta una request con un único intento.
func (c *Client) Do(ctx context.Context, method, url string, body, out any, opts ...RequestOption) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range append(append([]RequestOption{}, c.opts...), opts...) {
		if err := o(req); err != nil {
			return fmt.Errorf("request option: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
