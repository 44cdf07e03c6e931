package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/httpc"
	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/render"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many matching notifications of one event are
// dispatched at the same time.
const DefaultConcurrency = 4

// Recorder keeps the outcome of every dispatch.
type Recorder interface {
	RecordResponse(ctx context.Context, r store.NotificationResponse) error
}

// Dispatcher matches pull request events against the configured
// notifications and performs the resulting calls.
type Dispatcher struct {
	Settings *settings.Cache
	Invoker  invoker.Invoker
	Platform pullrequest.Platform
	// Recorder is optional.
	Recorder Recorder
	Tracer   *Tracer
	// ClientTimeout bounds OAuth2 token requests.
	ClientTimeout time.Duration
	Concurrency   int
	Now           func() time.Time

	ksMu     sync.Mutex
	ks       *httpc.ClientKeyStore
	ksLoaded bool

	tokens tokenSources
}

// New returns a dispatcher reading notifications through cache. Changes of
// the global settings data drop the loaded client key store.
func New(cache *settings.Cache, inv invoker.Invoker, platform pullrequest.Platform) *Dispatcher {
	if platform == nil {
		platform = pullrequest.StaticPlatform{}
	}
	d := &Dispatcher{
		Settings:    cache,
		Invoker:     inv,
		Platform:    platform,
		Tracer:      NewTracer(),
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
	}
	cache.OnDataChange(func(settings.Data) {
		d.resetKeyStore()
		d.tokens.reset()
	})
	return d
}

func (d *Dispatcher) resetKeyStore() {
	d.ksMu.Lock()
	defer d.ksMu.Unlock()
	d.ks, d.ksLoaded = nil, false
	common.GetLogger().WithComponent("dispatch").Debug("client key store reset")
}

func (d *Dispatcher) keyStore(data settings.Data) *httpc.ClientKeyStore {
	d.ksMu.Lock()
	defer d.ksMu.Unlock()
	if !d.ksLoaded {
		d.ks = data.LoadKeyStore()
		d.ksLoaded = true
	}
	return d.ks
}

// snapshot is the trust configuration used for every call of one event.
func (d *Dispatcher) snapshot(data settings.Data) render.Trust {
	return render.Trust{
		AcceptAnyCertificate: data.AcceptAnyCertificate,
		KeyStore:             d.keyStore(data),
	}
}

// HandleEvent dispatches every notification that matches ev and returns the
// outcome of each call. A failing notification does not stop the others.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev pullrequest.Event) ([]store.NotificationResponse, error) {
	st, err := d.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	trust := d.snapshot(st.Data)
	base := render.NewEvalContext(ev, nil, d.Platform)
	return d.dispatchAll(ctx, st.Notifications, ev, base, trust), nil
}

// Notify renders and performs the call of n for ec, regardless of triggers
// and filters.
func (d *Dispatcher) Notify(ctx context.Context, n settings.Notification, ec *render.EvalContext) (store.NotificationResponse, error) {
	st, err := d.Settings.Get(ctx)
	if err != nil {
		return store.NotificationResponse{}, fmt.Errorf("load settings: %w", err)
	}
	resp := d.notify(ctx, n, ec.WithConfig(n.RenderConfig()), d.snapshot(st.Data))
	d.record(ctx, resp)
	return resp, nil
}

func (d *Dispatcher) dispatchAll(ctx context.Context, all []settings.Notification, ev pullrequest.Event, base *render.EvalContext, trust render.Trust) []store.NotificationResponse {
	logger := common.GetLogger().WithComponent("dispatch")
	var matched []settings.Notification
	for _, n := range all {
		ok, reason := d.matches(ctx, n, ev, base, trust)
		if !ok {
			logger.WithNotification(n.Name, n.UUID).Debug("notification skipped", "action", string(ev.Action), "reason", reason)
			continue
		}
		matched = append(matched, n)
	}
	logger.Info("dispatching event", "action", string(ev.Action), "pull_request", ev.PullRequest.ID,
		"notifications", len(all), "matched", len(matched))

	out := make([]store.NotificationResponse, len(matched))
	g := new(errgroup.Group)
	limit := d.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, n := range matched {
		g.Go(func() error {
			resp := d.notify(ctx, n, base.WithConfig(n.RenderConfig()), trust)
			d.record(ctx, resp)
			out[i] = resp
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// matches applies trigger, scope, state, merge status and filter checks.
// The second result names the failed check.
func (d *Dispatcher) matches(ctx context.Context, n settings.Notification, ev pullrequest.Event, base *render.EvalContext, trust render.Trust) (bool, string) {
	if !n.TriggeredBy(ev.Action) {
		return false, "trigger"
	}
	if !n.MatchesRepository(ev.PullRequest.ToRef.Repository) {
		return false, "repository"
	}
	if n.Ignores(ev.PullRequest.State) {
		return false, "ignored state"
	}
	if !n.TriggerIfCanMerge.Accepts(ev.Conflicted) {
		return false, "merge status"
	}
	if n.FilterRegexp == "" {
		return true, ""
	}
	re, err := regexp.Compile(n.FilterRegexp)
	if err != nil {
		return false, "invalid filter regexp"
	}
	r := render.New(base.WithConfig(n.RenderConfig()), d.Invoker, trust)
	subject, err := r.Render(ctx, n.FilterString, render.EncodingNone)
	if err != nil {
		return false, "filter render failed"
	}
	if !re.MatchString(subject) {
		return false, "filter"
	}
	return true, ""
}

func (d *Dispatcher) notify(ctx context.Context, n settings.Notification, ec *render.EvalContext, trust render.Trust) store.NotificationResponse {
	logger := common.GetLogger().WithComponent("dispatch").WithNotification(n.Name, n.UUID)
	resp := store.NotificationResponse{
		NotificationUUID: n.UUID,
		NotificationName: n.Name,
		Method:           string(n.Method),
		Action:           string(ec.Action),
		PullRequestID:    ec.PullRequest.ID,
		DispatchedAt:     d.Now(),
	}
	if resp.Method == "" {
		resp.Method = string(invoker.MethodGet)
	}

	ctx, span := d.Tracer.startNotification(ctx, n.Name, n.UUID, resp.Action)
	defer func() { d.Tracer.endNotification(span, resp.Status, resp.Error) }()

	spec, err := d.buildSpec(ctx, n, ec, trust)
	if err != nil {
		resp.URI = spec.URL
		resp.Error = err.Error()
		logger.Error("failed to prepare notification", "error", err)
		return resp
	}
	resp.URI = spec.URL

	res, err := d.Invoker.Invoke(ctx, spec)
	if err != nil {
		resp.Error = err.Error()
		logger.Error("notification call failed", "error", err)
		return resp
	}
	resp.Status = res.Status
	resp.Body = res.Body
	if res.URI != "" {
		resp.URI = res.URI
	}
	logger.Info("notification sent", "status", res.Status)
	return resp
}

// buildSpec renders the URL, body and header values of n. On failure the
// returned spec carries whatever was rendered so far.
func (d *Dispatcher) buildSpec(ctx context.Context, n settings.Notification, ec *render.EvalContext, trust render.Trust) (invoker.Spec, error) {
	r := render.New(ec, d.Invoker, trust)
	spec := invoker.Spec{
		Method:               n.Method,
		User:                 n.User,
		Password:             n.Password,
		Proxy:                n.Proxy(),
		AcceptAnyCertificate: trust.AcceptAnyCertificate,
		KeyStore:             trust.KeyStore,
		HTTPVersion:          n.HTTPVersion,
	}

	var err error
	if spec.URL, err = r.Render(ctx, n.URL, render.EncodingURL); err != nil {
		return spec, fmt.Errorf("render url: %w", err)
	}
	if n.PostContent != "" {
		if spec.Body, err = r.Render(ctx, n.PostContent, n.PostContentEncoding); err != nil {
			return spec, fmt.Errorf("render post content: %w", err)
		}
	}

	if n.OAuth2 != nil && !(n.User != "" && n.Password != "") {
		token, err := d.tokens.bearer(ctx, n.UUID, n.OAuth2, d.tokenClient(spec).HTTPClient())
		if err != nil {
			return spec, err
		}
		spec.Headers = append(spec.Headers, invoker.Header{Name: "Authorization", Value: "Bearer " + token})
	}
	for _, h := range n.Headers {
		value, err := r.Render(ctx, h.Value, render.EncodingNone)
		if err != nil {
			return spec, fmt.Errorf("render header %s: %w", h.Name, err)
		}
		spec.Headers = append(spec.Headers, invoker.Header{Name: h.Name, Value: value})
	}
	return spec, nil
}

// tokenClient is the HTTP client used to reach the token endpoint. It goes
// through the same proxy and trust settings as the notification itself.
func (d *Dispatcher) tokenClient(spec invoker.Spec) *httpc.Httpc {
	return &httpc.Httpc{
		AcceptAnyCertificate: spec.AcceptAnyCertificate,
		KeyStore:             spec.KeyStore,
		Proxy:                spec.Proxy,
		HTTP11:               true,
		Timeout:              d.ClientTimeout,
	}
}

func (d *Dispatcher) record(ctx context.Context, resp store.NotificationResponse) {
	if d.Recorder == nil {
		return
	}
	if err := d.Recorder.RecordResponse(ctx, resp); err != nil {
		common.GetLogger().WithComponent("dispatch").WithNotification(resp.NotificationName, resp.NotificationUUID).
			Warn("failed to record response", "error", err)
	}
}
