package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPSConfig configures the client's outbound connection to the bank.
// InsecureSkipVerify exists only to support test fixtures against
// self-signed bank sandboxes; production configuration must leave it
// false.
type HTTPSConfig struct {
	MinTLSVersion      uint16
	Timeout            time.Duration
	IdleConnTimeout    time.Duration
	InsecureSkipVerify bool
}

// DefaultHTTPSConfig returns the client's default transport settings.
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   tls.VersionTLS12,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
	}
}

// Client posts EBICS XML documents to a single bank endpoint. It is meant
// to be created once and shared across transactions, unlike TransactionContext
// which is created fresh per call.
type Client struct {
	http *http.Client
	log  *slog.Logger
}

// New creates a Client. A nil config uses DefaultHTTPSConfig; a nil logger
// disables logging.
func New(config *HTTPSConfig, log *slog.Logger) *Client {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tlsConfig := &tls.Config{
		MinVersion:         config.MinTLSVersion,
		InsecureSkipVerify: config.InsecureSkipVerify,
	}
	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	return &Client{
		http: &http.Client{Transport: transport, Timeout: config.Timeout},
		log:  log,
	}
}

// Post sends body (a complete EBICS XML document) to url and returns the
// response body. A non-200 status or a connection failure is surfaced to
// the caller for wrapping into an ebicserr.TransportError; the engine
// treats any error here as terminal for the transaction — EBICS recovery
// is a bank-side protocol, not a client-side retry.
func (c *Client) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("User-Agent", "go-ebics/1.0")

	c.log.Debug("ebics request", "url", url, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: unexpected status %d: %s", resp.StatusCode, string(responseBody))
	}

	c.log.Debug("ebics response", "url", url, "status", resp.StatusCode, "bytes", len(responseBody))
	return responseBody, nil
}
