// Package kalshi es el adapter de Kalshi: fuente primaria de mercados y broker
// de contratos binarios.
package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alejandrodnm/arbgate/internal/adapters/httpx"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

const (
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	// Límites de paginación de /events.
	maxScanPages   = 20
	maxLookupPages = 15
	pageSize       = 200

	defaultMinVolume = 500
	defaultMaxDays   = 60
)

// ErrNoCredentials: endpoint de portfolio sin clave configurada.
var ErrNoCredentials = errors.New("kalshi: API key not configured")

// Client habla con la API REST de Kalshi. Los endpoints de mercado son públicos;
// los de portfolio se firman con RSA-PSS.
type Client struct {
	http      *httpx.Client
	baseURL   string
	keyID     string
	key       *rsa.PrivateKey
	minVolume int64
	maxDays   int
	now       func() time.Time

	// títulos vistos en el último Fetch → ticker, para FindTicker
	titles map[string]string
}

// Option configura el Client.
type Option func(*Client)

// WithCredentials configura la firma de requests.
func WithCredentials(keyID string, key *rsa.PrivateKey) Option {
	return func(c *Client) {
		c.keyID = keyID
		c.key = key
	}
}

// WithFilters fija el volumen mínimo y el horizonte máximo del scan.
func WithFilters(minVolume int64, maxDays int) Option {
	return func(c *Client) {
		if minVolume > 0 {
			c.minVolume = minVolume
		}
		if maxDays > 0 {
			c.maxDays = maxDays
		}
	}
}

// WithClock sustituye el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient crea un Client. Si baseURL está vacío usa producción.
func NewClient(h *httpx.Client, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:      h,
		baseURL:   baseURL,
		minVolume: defaultMinVolume,
		maxDays:   defaultMaxDays,
		now:       time.Now,
		titles:    make(map[string]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name implementa ports.Source.
func (c *Client) Name() string { return string(domain.SourceKalshi) }

// LoadPrivateKey lee una clave RSA en PEM (PKCS8 o PKCS1).
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadPrivateKey: %w", err)
	}
	return ParsePrivateKey(b)
}

// ParsePrivateKey decodifica una clave RSA en PEM.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("kalshi.ParsePrivateKey: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return nil, fmt.Errorf("kalshi.ParsePrivateKey: %w (pkcs1: %v)", err, pkcs1Err)
		}
		return pkcs1, nil
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("kalshi.ParsePrivateKey: expected RSA key, got %T", key)
	}
	return rsaKey, nil
}

// sign añade los headers de autenticación. El mensaje firmado es
// timestamp_ms + método + path (sin query string).
func (c *Client) sign(req *http.Request) error {
	if c.key == nil {
		return ErrNoCredentials
	}
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	msg := ts + req.Method + req.URL.Path

	hash := sha256.Sum256([]byte(msg))
	sig, err := rsa.SignPSS(rand.Reader, c.key, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("rsa sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.keyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(sig))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus añade contexto a los errores HTTP de Kalshi conservando el
// *httpx.StatusError en la cadena. Un 404 además es domain.ErrNotFound.
func checkStatus(err error) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var apiErr errorResponse
	_ = json.Unmarshal([]byte(se.Body), &apiErr)

	kind := "HTTP error"
	switch {
	case se.Code == http.StatusNotFound:
		return fmt.Errorf("kalshi: not found: %w: %w", domain.ErrNotFound, err)
	case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
		kind = "unauthorized"
	case se.Code == http.StatusTooManyRequests:
		kind = "rate limited"
	case se.Code >= 400 && se.Code < 500:
		kind = "bad request"
	}
	if apiErr.Error.Code != "" {
		kind += " [" + apiErr.Error.Code + "]"
	}
	return fmt.Errorf("kalshi: %s: %w", kind, err)
}
