package httpc

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Proxy describes an outbound HTTP proxy.
type Proxy struct {
	Host     string
	Port     int
	Scheme   string
	User     string
	Password string
}

// Enabled reports whether the proxy has both a host and a positive port.
func (p *Proxy) Enabled() bool {
	return p != nil && strings.TrimSpace(p.Host) != "" && p.Port > 0
}

// Authenticated reports whether both proxy credentials are present.
func (p *Proxy) Authenticated() bool {
	return p != nil && p.User != "" && p.Password != ""
}

// URL returns the proxy URL, or nil when the proxy is not enabled.
func (p *Proxy) URL() *url.URL {
	if !p.Enabled() {
		return nil
	}
	scheme := strings.ToLower(strings.TrimSpace(p.Scheme))
	if scheme == "" {
		scheme = "http"
	}
	u := &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(strings.TrimSpace(p.Host), strconv.Itoa(p.Port)),
	}
	if p.Authenticated() {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u
}

// Httpc builds HTTP clients for outbound notification calls.
//
// HTTP/1.0 is approximated by closing the connection after every request;
// net/http always writes an HTTP/1.1 request line. HTTP2 is never negotiated.
type Httpc struct {
	// TlsConfig is an optional base TLS config, cloned before use.
	TlsConfig            *tls.Config
	AcceptAnyCertificate bool
	KeyStore             *ClientKeyStore
	Proxy                *Proxy
	HTTP11               bool
	Timeout              time.Duration
}

// TLSConfig returns the TLS settings derived from the receiver.
// Defaults: MinVersion TLS1.2 when the base config leaves it zero.
func (h *Httpc) TLSConfig() *tls.Config {
	var cfg *tls.Config
	if h.TlsConfig != nil {
		cfg = h.TlsConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	if h.AcceptAnyCertificate {
		cfg.InsecureSkipVerify = true
	}
	if cert, ok := h.KeyStore.Certificate(); ok {
		cfg.Certificates = append(cfg.Certificates, cert)
	}
	return cfg
}

// Transport returns a fresh transport for one dispatch.
func (h *Httpc) Transport() *http.Transport {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       h.TLSConfig(),
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		DisableKeepAlives:     !h.HTTP11,
		ForceAttemptHTTP2:     false,
		// non-nil and empty disables h2 upgrade on TLS connections
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}
	if u := h.Proxy.URL(); u != nil {
		tr.Proxy = http.ProxyURL(u)
	}
	return tr
}

// New returns a resty.Client configured according to the receiver's settings.
// The transport is instrumented with otelhttp.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	c.SetTransport(otelhttp.NewTransport(h.Transport()))
	if h.Timeout > 0 {
		c.SetTimeout(h.Timeout)
	}
	return c
}

// HTTPClient is New for callers that need a plain *http.Client.
func (h *Httpc) HTTPClient() *http.Client {
	return h.New().GetClient()
}
