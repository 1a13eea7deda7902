package cert

import (
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Bundle file names written by Bootstrap
const (
	CAFile        = "ca.pem"
	CAKeyFile     = "ca-key.pem"
	ServerFile    = "server.pem"
	ServerKeyFile = "server-key.pem"
	ClientFile    = "client.pem"
	ClientKeyFile = "client-key.pem"
)

// Bundle lists the files of a bootstrapped certificate set
type Bundle struct {
	CA        string
	CAKey     string
	Server    string
	ServerKey string
	Client    string
	ClientKey string
}

// Bootstrap writes a CA plus one server and one client certificate into dir
func Bootstrap(dir string, hosts []string) (*Bundle, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	b := &Bundle{
		CA:        filepath.Join(dir, CAFile),
		CAKey:     filepath.Join(dir, CAKeyFile),
		Server:    filepath.Join(dir, ServerFile),
		ServerKey: filepath.Join(dir, ServerKeyFile),
		Client:    filepath.Join(dir, ClientFile),
		ClientKey: filepath.Join(dir, ClientKeyFile),
	}

	issuer, err := NewIssuer()
	if err != nil {
		return nil, err
	}
	if err := issuer.SaveCA(b.CA, b.CAKey); err != nil {
		return nil, err
	}

	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1"}
	}
	server, err := issuer.Issue(UsageServer, hosts[0], hosts)
	if err != nil {
		return nil, err
	}
	if err := server.Save(b.Server, b.ServerKey); err != nil {
		return nil, err
	}

	client, err := issuer.Issue(UsageClient, "emgdconf-client", nil)
	if err != nil {
		return nil, err
	}
	if err := client.Save(b.Client, b.ClientKey); err != nil {
		return nil, err
	}

	return b, nil
}

// VerifyResult contains the result of certificate verification
type VerifyResult struct {
	Valid       bool
	Usage       Usage
	Hosts       []string
	Error       string
	Certificate *x509.Certificate
}

// VerifyFile verifies a certificate file against a CA file
func VerifyFile(certPath, caCertPath string) (*VerifyResult, error) {
	cert, err := readCertificate(certPath)
	if err != nil {
		return nil, err
	}

	caCert, err := readCertificate(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate: %w", err)
	}

	result := &VerifyResult{
		Certificate: cert,
		Usage:       usageOf(cert),
		Hosts:       append([]string(nil), cert.DNSNames...),
	}
	for _, ip := range cert.IPAddresses {
		result.Hosts = append(result.Hosts, ip.String())
	}

	roots := x509.NewCertPool()
	roots.AddCert(caCert)

	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	if _, err := cert.Verify(opts); err != nil {
		result.Valid = false
		result.Error = err.Error()
	} else {
		result.Valid = true
	}

	return result, nil
}

// usageOf reports the first recognised extended key usage
func usageOf(cert *x509.Certificate) Usage {
	for _, u := range cert.ExtKeyUsage {
		switch u {
		case x509.ExtKeyUsageServerAuth:
			return UsageServer
		case x509.ExtKeyUsageClientAuth:
			return UsageClient
		}
	}
	return ""
}

// Covers reports whether a server certificate is valid for host
func (r *VerifyResult) Covers(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		for _, h := range r.Hosts {
			if other := net.ParseIP(h); other != nil && other.Equal(ip) {
				return true
			}
		}
		return false
	}
	return r.Certificate.VerifyHostname(host) == nil
}

// FormatVerifyResult formats verification result for display
func FormatVerifyResult(result *VerifyResult) string {
	var sb strings.Builder

	sb.WriteString("Certificate Verification Result\n")
	sb.WriteString("===============================\n\n")

	if result.Valid {
		sb.WriteString("Status: VALID\n")
	} else {
		sb.WriteString("Status: INVALID\n")
		sb.WriteString(fmt.Sprintf("Error: %s\n", result.Error))
	}

	sb.WriteString("\nCertificate Details:\n")
	sb.WriteString(fmt.Sprintf("  Subject: %s\n", result.Certificate.Subject))
	sb.WriteString(fmt.Sprintf("  Issuer: %s\n", result.Certificate.Issuer))
	sb.WriteString(fmt.Sprintf("  Serial: %s\n", result.Certificate.SerialNumber))
	sb.WriteString(fmt.Sprintf("  Valid From: %s\n", result.Certificate.NotBefore))
	sb.WriteString(fmt.Sprintf("  Valid Until: %s\n", result.Certificate.NotAfter))

	if result.Usage != "" {
		sb.WriteString(fmt.Sprintf("  Usage: %s\n", result.Usage))
	}
	if len(result.Hosts) > 0 {
		sb.WriteString(fmt.Sprintf("  Hosts: %s\n", strings.Join(result.Hosts, ", ")))
	}

	return sb.String()
}
