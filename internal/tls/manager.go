package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"pixgate/internal/config"
	"pixgate/internal/util"
)

// Manager provides server certificates: ACME autocert in production,
// file-based certs when configured, and a generated self-signed cert as the
// development fallback.
type Manager struct {
	config *config.ServerConfig

	autoCert *autocert.Manager

	selfSignedOnce sync.Once
	selfSigned     *tls.Certificate
	selfSignedErr  error
}

func NewManager(cfg *config.ServerConfig) *Manager {
	m := &Manager{config: cfg}
	if cfg.EnableTLS && cfg.AutoCert {
		m.setupAutoCert()
	}
	return m
}

func (m *Manager) setupAutoCert() {
	if err := os.MkdirAll(m.config.AutoCertDir, 0o700); err != nil {
		util.Warn("Could not create autocert cache directory", util.ErrorField(err))
		return
	}

	m.autoCert = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(m.config.Domain),
		Cache:      autocert.DirCache(m.config.AutoCertDir),
		Email:      m.config.Email,
	}

	util.Info("AutoCert configured",
		util.String("domain", m.config.Domain),
		util.String("cache_dir", m.config.AutoCertDir))
}

// GetCertificate resolves a certificate for one handshake: autocert first,
// then configured files, then a self-signed fallback.
func (m *Manager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if m.autoCert != nil {
		if cert, err := m.autoCert.GetCertificate(hello); err == nil {
			return cert, nil
		}
	}

	if m.config.CertFile != "" && m.config.KeyFile != "" {
		if cert, err := tls.LoadX509KeyPair(m.config.CertFile, m.config.KeyFile); err == nil {
			return &cert, nil
		}
	}

	return m.selfSignedCert()
}

// GetTLSConfig returns the server TLS configuration.
func (m *Manager) GetTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
		MinVersion:     tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}
}

// GetAutocertManager exposes the ACME manager for the port-80 challenge
// handler; nil when autocert is not configured.
func (m *Manager) GetAutocertManager() *autocert.Manager {
	return m.autoCert
}

// selfSignedCert lazily generates one self-signed certificate for local
// development. Never used in production.
func (m *Manager) selfSignedCert() (*tls.Certificate, error) {
	m.selfSignedOnce.Do(func() {
		m.selfSigned, m.selfSignedErr = generateSelfSigned(m.config.Domain)
		if m.selfSignedErr == nil {
			util.Info("Generated self-signed certificate",
				util.String("domain", m.config.Domain))
		}
	})
	if m.selfSignedErr != nil {
		return nil, m.selfSignedErr
	}
	return m.selfSigned, nil
}

func generateSelfSigned(domain string) (*tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "pixgate dev"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}
	if domain != "" {
		template.DNSNames = append(template.DNSNames, domain)
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
