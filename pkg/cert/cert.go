// Package cert issues the CA, server and client certificates used to run the
// generator server with mTLS.
package cert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// Key sizes; tests lower caKeyBits
var (
	caKeyBits   = 4096
	leafKeyBits = 2048
)

const organization = "EMGD Configuration Generator"

// Usage selects what an issued certificate may authenticate
type Usage string

const (
	UsageServer Usage = "server"
	UsageClient Usage = "client"
)

func (u Usage) extKeyUsage() (x509.ExtKeyUsage, error) {
	switch u {
	case UsageServer:
		return x509.ExtKeyUsageServerAuth, nil
	case UsageClient:
		return x509.ExtKeyUsageClientAuth, nil
	default:
		return 0, fmt.Errorf("unknown certificate usage: %s", u)
	}
}

// Issuer signs certificates with a CA key pair
type Issuer struct {
	caCert *x509.Certificate
	caKey  *rsa.PrivateKey
}

// NewIssuer creates a new issuer with a self-signed CA
func NewIssuer() (*Issuer, error) {
	caKey, err := rsa.GenerateKey(rand.Reader, caKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CA key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, err
	}

	caTemplate := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   "emgdconf CA",
		},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour * 10), // 10 years
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}

	caCertDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	caCert, err := x509.ParseCertificate(caCertDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	return &Issuer{
		caCert: caCert,
		caKey:  caKey,
	}, nil
}

// CA returns the CA certificate
func (i *Issuer) CA() *x509.Certificate {
	return i.caCert
}

// SaveCA saves the CA certificate and key to files
func (i *Issuer) SaveCA(certPath, keyPath string) error {
	if err := writePEM(certPath, "CERTIFICATE", i.caCert.Raw, 0o644); err != nil {
		return fmt.Errorf("failed to write CA cert: %w", err)
	}
	if err := writePEM(keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(i.caKey), 0o600); err != nil {
		return fmt.Errorf("failed to write CA key: %w", err)
	}
	return nil
}

// LoadCA loads CA certificate and key from files
func LoadCA(certPath, keyPath string) (*Issuer, error) {
	caCert, err := readCertificate(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA cert: %w", err)
	}

	keyPEM, err := os.ReadFile(keyPath) // #nosec G304 -- keyPath is a user-specified CA key file path
	if err != nil {
		return nil, fmt.Errorf("failed to read CA key: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("failed to decode CA key PEM")
	}

	caKey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA key: %w", err)
	}

	if !caCert.IsCA {
		return nil, fmt.Errorf("%s is not a CA certificate", certPath)
	}

	return &Issuer{
		caCert: caCert,
		caKey:  caKey,
	}, nil
}

// Issue signs a new certificate. Server certificates cover hosts, which may
// be DNS names or IP addresses.
func (i *Issuer) Issue(usage Usage, commonName string, hosts []string) (*Certificate, error) {
	extUsage, err := usage.extKeyUsage()
	if err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := newSerial()
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:   time.Now().Add(-time.Minute),
		NotAfter:    time.Now().Add(365 * 24 * time.Hour), // 1 year
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{extUsage},
	}

	if usage == UsageServer {
		for _, h := range hosts {
			if ip := net.ParseIP(h); ip != nil {
				template.IPAddresses = append(template.IPAddresses, ip)
			} else {
				template.DNSNames = append(template.DNSNames, h)
			}
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, i.caCert, &key.PublicKey, i.caKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return &Certificate{
		Certificate: cert,
		PrivateKey:  key,
		Usage:       usage,
	}, nil
}

// Verify checks that cert was signed by the CA for the given usage
func (i *Issuer) Verify(cert *x509.Certificate, usage Usage) error {
	extUsage, err := usage.extKeyUsage()
	if err != nil {
		return err
	}

	roots := x509.NewCertPool()
	roots.AddCert(i.caCert)

	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{extUsage},
	}

	if _, err := cert.Verify(opts); err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}

	return nil
}

// Certificate represents an issued certificate
type Certificate struct {
	*x509.Certificate
	PrivateKey *rsa.PrivateKey
	Usage      Usage
}

// Save saves the certificate and, when keyPath is set, its key
func (c *Certificate) Save(certPath, keyPath string) error {
	if err := writePEM(certPath, "CERTIFICATE", c.Raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cert: %w", err)
	}

	if keyPath != "" {
		if err := writePEM(keyPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(c.PrivateKey), 0o600); err != nil {
			return fmt.Errorf("failed to write key: %w", err)
		}
	}

	return nil
}

// PEM returns the certificate as PEM-encoded string
func (c *Certificate) PEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: c.Raw,
	}))
}

func newSerial() (*big.Int, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}
	return serial, nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) // #nosec G304 -- path is provided by the user
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if err := pem.Encode(out, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return err
	}

	// OpenFile keeps the mode of an existing file
	return os.Chmod(path, perm)
}

func readCertificate(path string) (*x509.Certificate, error) {
	certPEM, err := os.ReadFile(path) // #nosec G304 -- path is a user-specified certificate file
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode certificate PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}
