package revocation

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"
)

// ErrRevoked is returned when the OCSP responder reports the certificate
// as revoked.
var ErrRevoked = errors.New("revocation: certificate has been revoked")

// Checker checks bank certificates against their issuer's OCSP responder.
type Checker struct {
	http *http.Client
}

// NewChecker creates a Checker with the given timeout (zero uses a 10s
// default).
func NewChecker(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Checker{http: &http.Client{Timeout: timeout}}
}

// Check queries cert's OCSP responder (the first URL in cert.OCSPServer)
// and returns ErrRevoked if the response says the certificate is revoked,
// nil if it says good, and a plain error if the status could not be
// determined at all.
func (c *Checker) Check(ctx context.Context, cert, issuer *x509.Certificate) error {
	if cert == nil || issuer == nil {
		return fmt.Errorf("revocation: certificate and issuer are both required")
	}
	if len(cert.OCSPServer) == 0 {
		return fmt.Errorf("revocation: certificate carries no OCSP responder URL")
	}

	request, err := ocsp.CreateRequest(cert, issuer, &ocsp.RequestOptions{Hash: crypto.SHA256})
	if err != nil {
		return fmt.Errorf("revocation: building OCSP request: %w", err)
	}

	body, err := c.post(ctx, cert.OCSPServer[0], request)
	if err != nil {
		return fmt.Errorf("revocation: OCSP request: %w", err)
	}

	resp, err := ocsp.ParseResponse(body, issuer)
	if err != nil {
		return fmt.Errorf("revocation: parsing OCSP response: %w", err)
	}

	switch resp.Status {
	case ocsp.Good:
		return nil
	case ocsp.Revoked:
		return ErrRevoked
	default:
		return fmt.Errorf("revocation: OCSP status unknown for serial %s", cert.SerialNumber)
	}
}

func (c *Checker) post(ctx context.Context, url string, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(request))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
