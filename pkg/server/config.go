package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config contains configuration for the generator server
type Config struct {
	Addr         string // Listen address
	CertFile     string // Optional server certificate file
	KeyFile      string // Optional server private key file
	CAFile       string // Optional CA for client verification, enables mTLS
	LogFile      string // Optional log file path
	TablesDir    string // Optional reference table overrides
	TemplatesDir string // Optional template overrides
	HostInfo     bool   // Write host name and platform into generated headers
	Version      string // Generator version written into headers
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:    "127.0.0.1:8023",
		Version: "dev",
	}
}

// TLSEnabled reports whether a server certificate is configured
func (c Config) TLSEnabled() bool {
	return c.CertFile != ""
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("certificate and key files must be given together")
	}

	if c.CAFile != "" && c.CertFile == "" {
		return fmt.Errorf("client verification requires a server certificate")
	}

	for _, f := range []string{c.CertFile, c.KeyFile, c.CAFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("file not found: %s", f)
		}
	}

	return nil
}

// LoadTLSConfig creates the TLS configuration, or nil when TLS is off.
// A CA file switches on client certificate verification.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled() {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if c.CAFile == "" {
		return tlsConfig, nil
	}

	caCert, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	tlsConfig.ClientCAs = caCertPool

	return tlsConfig, nil
}
