package invoker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/httpc"
)

// Invoker performs one outbound call. Transport failures are returned as errors.
type Invoker interface {
	Invoke(ctx context.Context, spec Spec) (*Result, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, spec Spec) (*Result, error)

func (f InvokerFunc) Invoke(ctx context.Context, spec Spec) (*Result, error) {
	return f(ctx, spec)
}

// HTTPInvoker executes a Spec with a resty client built per call.
type HTTPInvoker struct {
	// Timeout bounds the whole call. Zero means no timeout.
	Timeout time.Duration
	// TLSConfig is an optional base TLS config (root CAs, versions).
	TLSConfig *tls.Config
}

// NewHTTPInvoker returns an invoker with the given timeout.
func NewHTTPInvoker(timeout time.Duration) *HTTPInvoker {
	return &HTTPInvoker{Timeout: timeout}
}

// Client returns the resty client a Spec would be executed with.
func (i *HTTPInvoker) Client(spec Spec) *resty.Client {
	h := httpc.Httpc{
		TlsConfig:            i.TLSConfig,
		AcceptAnyCertificate: spec.AcceptAnyCertificate,
		KeyStore:             spec.KeyStore,
		Proxy:                spec.Proxy,
		HTTP11:               spec.HTTPVersion == HTTP11,
		Timeout:              i.Timeout,
	}
	return h.New()
}

// Invoke implements Invoker.
func (i *HTTPInvoker) Invoke(ctx context.Context, spec Spec) (*Result, error) {
	u, err := NormalizeURL(spec.URL)
	if err != nil {
		return nil, err
	}
	method := spec.Method
	if method == "" {
		method = MethodGet
	}
	logger := common.GetLogger().WithComponent("invoker").WithRequest(string(method), u.String())
	logger.Info("invoking url", "http_version", string(spec.HTTPVersion))

	req := i.Client(spec).R().SetContext(ctx)
	for _, h := range spec.RequestHeaders() {
		logger.Debug("header", "name", h.Name, "value", common.MaskHeader(h.Name, h.Value))
		req.Header.Add(h.Name, h.Value)
	}
	if spec.ShouldPostContent() {
		if req.Header.Get("Content-Type") == "" && isJSON(spec.Body) {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBody([]byte(spec.Body))
	}

	resp, err := execByMethod(req, method, u.String())
	if err != nil {
		return nil, fmt.Errorf("invoke %s %s: %w", method, common.MaskSensitiveData(u.String()), err)
	}

	res := &Result{Status: resp.StatusCode(), Body: resp.String(), URI: u.String()}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		res.URI = raw.Request.URL.String()
	}
	logger.Debug("response", "status", res.Status, "body", res.Body)
	return res, nil
}

func execByMethod(req *resty.Request, method Method, url string) (*resty.Response, error) {
	switch method {
	case MethodGet:
		return req.Get(url)
	case MethodPost:
		return req.Post(url)
	case MethodPut:
		return req.Put(url)
	case MethodDelete:
		return req.Delete(url)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

func isJSON(s string) bool {
	t := strings.TrimSpace(s)
	if (strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")) || (strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]")) {
		var js json.RawMessage
		return json.Unmarshal([]byte(t), &js) == nil
	}
	return false
}
