package invoker

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/loykin/prnotify/internal/httpc"
)

var (
	// ErrInvalidURL marks a URL that cannot be parsed into an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrUnsupportedMethod marks a method outside GET/POST/PUT/DELETE.
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// Method is an HTTP method a notification may use.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ParseMethod accepts the four supported methods, case-insensitively. Empty means GET.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return MethodGet, nil
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, s)
	}
}

// HTTPVersion selects the protocol behaviour of the outbound connection.
type HTTPVersion string

const (
	HTTP10 HTTPVersion = "HTTP_1_0"
	HTTP11 HTTPVersion = "HTTP_1_1"
)

// ParseHTTPVersion returns HTTP11 for "HTTP_1_1" and HTTP10 for anything else.
func ParseHTTPVersion(s string) HTTPVersion {
	if strings.TrimSpace(s) == string(HTTP11) {
		return HTTP11
	}
	return HTTP10
}

// Header is one request header. Order is preserved.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Proxy is the outbound proxy of a Spec.
type Proxy = httpc.Proxy

// Spec is everything needed to perform one outbound call.
type Spec struct {
	URL     string
	Method  Method
	Body    string
	Headers []Header
	// User and Password produce a basic Authorization header when both are set.
	User     string
	Password string
	Proxy    *Proxy

	AcceptAnyCertificate bool
	KeyStore             *httpc.ClientKeyStore
	HTTPVersion          HTTPVersion
}

// ShouldPostContent reports whether the body is sent: only for POST and PUT
// with a non-empty body.
func (s Spec) ShouldPostContent() bool {
	return (s.Method == MethodPost || s.Method == MethodPut) && s.Body != ""
}

// RequestHeaders returns the headers in send order, basic auth first.
func (s Spec) RequestHeaders() []Header {
	out := make([]Header, 0, len(s.Headers)+1)
	if s.User != "" && s.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(s.User + ":" + s.Password))
		out = append(out, Header{Name: "Authorization", Value: "Basic " + token})
	}
	return append(out, s.Headers...)
}

// Result is the normalized response of one call.
type Result struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	URI    string `json:"uri"`
}

var whitespace = regexp.MustCompile(`[\s\v]`)

// NormalizeURL percent-encodes whitespace and parses the result. Only
// absolute http and https URLs are accepted.
func NormalizeURL(raw string) (*url.URL, error) {
	escaped := whitespace.ReplaceAllLiteralString(raw, "%20")
	u, err := url.ParseRequestURI(escaped)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}
	return u, nil
}
