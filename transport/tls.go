package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig builds a client-side *tls.Config for Dial: ServerName plus an
// optional client certificate (mutual TLS) and an optional custom root CA
// pool for verifying the broker's certificate.
type TLSConfig struct {
	ServerName         string
	CertFile           string
	KeyFile            string
	CAFile             string
	MinVersion         uint16
	MaxVersion         uint16
	CipherSuites       []uint16
	InsecureSkipVerify bool
}

func DefaultTLSConfig() *TLSConfig {
	return &TLSConfig{
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS13,
		InsecureSkipVerify: false,
	}
}

// Build produces a *tls.Config suitable for Dial. CertFile/KeyFile are only
// required when the broker demands a client certificate; CAFile, when set,
// replaces the system root pool for verifying the broker's certificate.
func (tc *TLSConfig) Build() (*tls.Config, error) {
	config := &tls.Config{
		ServerName:         tc.ServerName,
		MinVersion:         tc.MinVersion,
		MaxVersion:         tc.MaxVersion,
		CipherSuites:       tc.CipherSuites,
		InsecureSkipVerify: tc.InsecureSkipVerify,
	}

	if tc.CertFile != "" || tc.KeyFile != "" {
		if tc.CertFile == "" || tc.KeyFile == "" {
			return nil, ErrInvalidTLSConfig
		}
		cert, err := tls.LoadX509KeyPair(tc.CertFile, tc.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	if tc.CAFile != "" {
		caCert, err := os.ReadFile(tc.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		config.RootCAs = pool
	}

	return config, nil
}

// GetPeerCertificates returns the broker's certificate chain for an
// established TLS connection, or nil if conn is not TLS.
func GetPeerCertificates(conn *Conn) ([]*x509.Certificate, error) {
	if !conn.IsTLS() {
		return nil, nil
	}
	state, ok := conn.TLSConnectionState()
	if !ok {
		return nil, nil
	}
	return state.PeerCertificates, nil
}

func GetPeerCommonName(conn *Conn) (string, error) {
	certs, err := GetPeerCertificates(conn)
	if err != nil {
		return "", err
	}
	if len(certs) == 0 {
		return "", nil
	}
	return certs[0].Subject.CommonName, nil
}

// VerifyPeerCertificate is a defense-in-depth check beyond what
// crypto/tls.Config.ServerName already enforces during the handshake —
// useful when the broker address used to Dial is an IP or a load-balancer
// name that doesn't match the certificate's subject.
func VerifyPeerCertificate(conn *Conn, expectedCN string) error {
	if !conn.IsTLS() {
		return nil
	}
	cn, err := GetPeerCommonName(conn)
	if err != nil {
		return err
	}
	if cn != expectedCN {
		return ErrCertificateVerification
	}
	return nil
}
