package httpc

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"github.com/loykin/prnotify/internal/common"
	"software.sslmate.com/src/go-pkcs12"
)

// Key store formats.
const (
	KeyStorePKCS12 = "PKCS12"
	KeyStorePEM    = "PEM"
)

// ClientKeyStore holds the client certificate used for mutual TLS.
// A store that failed to load is usable and simply carries no certificate.
type ClientKeyStore struct {
	Path string
	Type string
	cert *tls.Certificate
}

// LoadClientKeyStore reads the key store at path. Load failures are logged
// and yield a store without a certificate. An empty path yields nil.
func LoadClientKeyStore(path, storeType, password string) *ClientKeyStore {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	ks := &ClientKeyStore{Path: path, Type: normalizeType(storeType)}
	cert, err := ks.load(password)
	if err != nil {
		common.GetLogger().WithComponent("keystore").Warn("failed to load keystore",
			"path", path, "type", ks.Type, "error", err)
		return ks
	}
	ks.cert = cert
	return ks
}

func normalizeType(t string) string {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case KeyStorePEM:
		return KeyStorePEM
	default:
		return KeyStorePKCS12
	}
}

func (ks *ClientKeyStore) load(password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(ks.Path)
	if err != nil {
		return nil, err
	}
	if ks.Type == KeyStorePEM {
		cert, err := tls.X509KeyPair(data, data)
		if err != nil {
			return nil, fmt.Errorf("parse pem key store: %w", err)
		}
		return &cert, nil
	}
	key, leaf, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12 key store: %w", err)
	}
	cert := &tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, ca := range chain {
		cert.Certificate = append(cert.Certificate, ca.Raw)
	}
	return cert, nil
}

// Certificate returns the loaded client certificate, if any.
func (ks *ClientKeyStore) Certificate() (tls.Certificate, bool) {
	if ks == nil || ks.cert == nil {
		return tls.Certificate{}, false
	}
	return *ks.cert, true
}

// Loaded reports whether a certificate is available.
func (ks *ClientKeyStore) Loaded() bool {
	_, ok := ks.Certificate()
	return ok
}
