package render

import (
	"strconv"
	"strings"

	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
)

// Config is the part of a notification the catalog reads: variable
// extraction, injection URL and the credentials/proxy used to fetch it.
type Config struct {
	VariableName         string
	VariableRegex        string
	InjectionURL         string
	InjectionURLRegexp   string
	InjectionURLJSONPath string
	User                 string
	Password             string
	Proxy                *invoker.Proxy
	HTTPVersion          invoker.HTTPVersion
}

// EvalContext is the read-only input of one render pass.
type EvalContext struct {
	PullRequest pullrequest.PullRequest
	Action      pullrequest.Action
	User        pullrequest.User
	// Config is nil when rendering for a button.
	Config   *Config
	Extras   map[Variable]string
	Platform pullrequest.Platform
}

// NewEvalContext builds a context for ev with the event-scoped values
// already extracted.
func NewEvalContext(ev pullrequest.Event, cfg *Config, platform pullrequest.Platform) *EvalContext {
	return &EvalContext{
		PullRequest: ev.PullRequest,
		Action:      ev.Action,
		User:        ev.User,
		Config:      cfg,
		Extras:      ExtrasFromEvent(ev),
		Platform:    platform,
	}
}

// ExtrasFromEvent maps the event payload to the event-scoped variables.
func ExtrasFromEvent(ev pullrequest.Event) map[Variable]string {
	extras := map[Variable]string{}
	if c := ev.Comment; c != nil {
		extras[PullRequestCommentText] = c.Text
		extras[PullRequestCommentAction] = c.Action
		extras[PullRequestCommentID] = strconv.FormatInt(c.ID, 10)
	}
	if r := ev.Rescope; r != nil {
		extras[PullRequestPreviousFromHash] = r.PreviousFromHash
		extras[PullRequestPreviousToHash] = r.PreviousToHash
	}
	if ev.MergeCommit != "" {
		extras[PullRequestMergeCommit] = ev.MergeCommit
	}
	if len(ev.UserGroups) > 0 {
		extras[PullRequestUserGroups] = strings.Join(ev.UserGroups, ",")
	}
	return extras
}

// WithConfig returns a copy of c rendering for cfg.
func (c *EvalContext) WithConfig(cfg *Config) *EvalContext {
	cp := *c
	cp.Config = cfg
	return &cp
}

// WithButton returns a copy of c carrying the button title and submitted
// form data. Empty form data is not recorded.
func (c *EvalContext) WithButton(title, formData string) *EvalContext {
	cp := *c
	cp.Extras = make(map[Variable]string, len(c.Extras)+2)
	for k, v := range c.Extras {
		cp.Extras[k] = v
	}
	cp.Extras[ButtonTriggerTitle] = title
	if formData != "" {
		cp.Extras[ButtonFormData] = formData
	}
	return &cp
}

// Extra returns the event-scoped value of v, or "".
func (c *EvalContext) Extra(v Variable) string {
	return c.Extras[v]
}
