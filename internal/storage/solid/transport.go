package solid

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// TransportLayer builds the HTTP transport used to reach pod servers.
type TransportLayer interface {
	RoundTripper() (http.RoundTripper, error)
}

// TLSTransport represents a transport that trusts an extra certificate authority.
// It is used for pod servers signed by a private CA.
type TLSTransport struct {
	caFileName string
}

// NewTLSTransport creates a new TLSTransport instance.
//
// Parameters:
//   - caFileName: Path to the PEM encoded CA certificate bundle
//
// Returns a pointer to the newly created TLSTransport instance.
func NewTLSTransport(caFileName string) *TLSTransport {
	return &TLSTransport{
		caFileName: caFileName,
	}
}

// RoundTripper creates a transport trusting the system roots plus the CA bundle.
//
// Returns the transport or an error if the bundle cannot be loaded.
func (t *TLSTransport) RoundTripper() (http.RoundTripper, error) {
	pem, err := os.ReadFile(t.caFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to load CA certificate: no certificates in %s", t.caFileName)
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	return tr, nil
}

// PlainTransport represents the default transport with system trust roots.
type PlainTransport struct{}

// NewPlainTransport creates a new PlainTransport instance.
func NewPlainTransport() *PlainTransport {
	return &PlainTransport{}
}

// RoundTripper returns a copy of the default transport.
func (t *PlainTransport) RoundTripper() (http.RoundTripper, error) {
	return http.DefaultTransport.(*http.Transport).Clone(), nil
}
