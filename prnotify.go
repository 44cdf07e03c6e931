package prnotify

import (
	"context"
	"net/http"
	"time"

	"github.com/loykin/prnotify/internal/dispatch"
	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/render"
	"github.com/loykin/prnotify/internal/server"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
	"github.com/loykin/prnotify/internal/store/postgresql"
	"github.com/loykin/prnotify/internal/store/sqlite"
)

// Re-export commonly used types for public API

// Event is one pull request event as delivered by the host platform.
type Event = pullrequest.Event

type (
	PullRequest = pullrequest.PullRequest
	Repository  = pullrequest.Repository
	Action      = pullrequest.Action
	Platform    = pullrequest.Platform
)

// StaticPlatform serves a fixed base URL.
type StaticPlatform = pullrequest.StaticPlatform

type (
	Settings     = settings.Settings
	Notification = settings.Notification
	Button       = settings.Button
	Data         = settings.Data
)

// SettingsService reads and writes settings through a key/value store.
type SettingsService = settings.Service

// Encoding selects how resolved variable values are escaped.
type Encoding = render.Encoding

const (
	EncodingNone = render.EncodingNone
	EncodingURL  = render.EncodingURL
	EncodingHTML = render.EncodingHTML
	EncodingJSON = render.EncodingJSON
)

// Dispatcher sends the notifications matching an event.
type Dispatcher = dispatch.Dispatcher

// PressResult is the outcome of a button press.
type PressResult = dispatch.PressResult

// NotificationResponse is the audit record of one dispatch.
type NotificationResponse = store.NotificationResponse

// Store is the SQL backed settings and response store.
type Store = store.SQLStore

type (
	StoreConfig    = store.Config
	TableNames     = store.TableNames
	SqliteConfig   = sqlite.Config
	PostgresConfig = postgresql.Config
)

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql
)

// JWTConfig configures bearer token verification of the REST API.
type JWTConfig = server.JWTConfig

// TokenRequest describes a token issued with JWTConfig.IssueToken.
type TokenRequest = server.TokenRequest

// Render substitutes the variables of template for ev without variable
// injection. platform may be nil.
func Render(ctx context.Context, ev Event, template string, enc Encoding, platform Platform) (string, error) {
	if platform == nil {
		platform = pullrequest.StaticPlatform{}
	}
	return render.Render(ctx, render.NewEvalContext(ev, nil, platform), template, enc)
}

// OpenStore opens (and initializes) the store described by cfg.
func OpenStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	return store.Open(ctx, cfg)
}

// NewSettingsService returns a settings service over st. Reads are cached
// for ttl; zero uses the default.
func NewSettingsService(st *Store, ttl time.Duration) *SettingsService {
	return settings.NewService(st, ttl)
}

// NewDispatcher wires a dispatcher that reads svc, calls out with timeout
// and records every response in st. st may be nil.
func NewDispatcher(svc *SettingsService, st *Store, platform Platform, timeout time.Duration) *Dispatcher {
	d := dispatch.New(svc.Cache(), invoker.NewHTTPInvoker(timeout), platform)
	d.ClientTimeout = timeout
	if st != nil {
		d.Recorder = st
	}
	return d
}

// NewHandler returns the REST API over svc and d for embedding into an
// existing HTTP server.
func NewHandler(svc *SettingsService, d *Dispatcher, st *Store, jwt JWTConfig) http.Handler {
	opts := server.Options{Settings: svc, Dispatcher: d, JWT: jwt}
	if st != nil {
		opts.Responses = st
	}
	return server.New(opts).Handler()
}
