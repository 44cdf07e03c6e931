package render

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/httpc"
	"github.com/loykin/prnotify/internal/invoker"
)

// MaxInjectionDepth is how many nested renders an injection URL may trigger.
const MaxInjectionDepth = 1

var (
	ErrInjectionCycle  = errors.New("injection url cycle")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrSubstitution    = errors.New("substitution failed")
)

// Trust is the TLS snapshot used for calls made while rendering.
type Trust struct {
	AcceptAnyCertificate bool
	KeyStore             *httpc.ClientKeyStore
}

// Renderer substitutes catalog placeholders in templates for one EvalContext.
type Renderer struct {
	Context *EvalContext
	Invoker invoker.Invoker
	Trust   Trust

	depth int
}

// New returns a top level renderer.
func New(ec *EvalContext, inv invoker.Invoker, trust Trust) *Renderer {
	if ec == nil {
		ec = &EvalContext{}
	}
	return &Renderer{Context: ec, Invoker: inv, Trust: trust}
}

func (r *Renderer) nested() *Renderer {
	cp := *r
	cp.depth = r.depth + 1
	return &cp
}

// Depth is 0 for the outer render and grows with each injection call.
func (r *Renderer) Depth() int {
	return r.depth
}

// Render replaces every known placeholder in template. EVERYTHING_URL goes
// first and unencoded; the placeholders it expands to are then encoded like
// any other. Unknown placeholders are left as they are.
func (r *Renderer) Render(ctx context.Context, template string, enc Encoding) (string, error) {
	out, err := r.substitute(ctx, template, EverythingURL, EncodingNone)
	if err != nil {
		return "", err
	}
	for _, v := range Variables {
		if v == EverythingURL {
			continue
		}
		if out, err = r.substitute(ctx, out, v, enc); err != nil {
			return "", err
		}
	}
	return out, nil
}

func (r *Renderer) substitute(ctx context.Context, s string, v Variable, enc Encoding) (string, error) {
	token := v.Token()
	if !strings.Contains(s, token) {
		return s, nil
	}
	replacement, err := enc.Encode(r.resolveOrEmpty(ctx, v))
	if err != nil {
		return "", fmt.Errorf("%w: encode %s as %s: %v", ErrSubstitution, v, enc, err)
	}
	re, err := regexp.Compile(regexp.QuoteMeta(token))
	if err != nil {
		return "", fmt.Errorf("%w: replace %s with %q: %v", ErrSubstitution, token, replacement, err)
	}
	return re.ReplaceAllLiteralString(s, replacement), nil
}

// Resolve returns the raw value of v. Errors are returned as is.
func (r *Renderer) Resolve(ctx context.Context, v Variable) (value string, err error) {
	resolver, ok := catalog[v]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, v)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("resolver %s panicked: %v", v, rec)
		}
	}()
	return resolver(ctx, r)
}

func (r *Renderer) resolveOrEmpty(ctx context.Context, v Variable) string {
	value, err := r.Resolve(ctx, v)
	if err != nil {
		common.GetLogger().WithComponent("render").WithVariable(string(v)).
			Error("error when resolving variable", "error", err, "depth", r.depth)
		return ""
	}
	return value
}

// Render is a convenience for a single render without an injection invoker.
func Render(ctx context.Context, ec *EvalContext, template string, enc Encoding) (string, error) {
	return New(ec, nil, Trust{}).Render(ctx, template, enc)
}
