package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/loykin/prnotify/internal/httpc"
	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/render"
	"github.com/loykin/prnotify/internal/util"
	"golang.org/x/net/http/httpguts"
)

// DefaultNotificationName is used when a notification is saved without a name.
const DefaultNotificationName = "Notification"

// ErrNotFound is returned for an unknown notification or button uuid.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a configuration at save time. Field names the
// offending input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var placeholder = regexp.MustCompile(`\$\{[A-Z0-9_]+\}`)

// validateTemplateURL checks that raw is a URL once its placeholders are filled in.
func validateTemplateURL(raw string) error {
	_, err := invoker.NormalizeURL(placeholder.ReplaceAllLiteralString(raw, "placeholder"))
	return err
}

func compiles(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := regexp.Compile(expr)
	return err
}

// NormalizeNotification trims every field, fills in defaults and validates n.
// The returned notification is what gets persisted.
func NormalizeNotification(n Notification) (Notification, error) {
	n = n.clone()
	util.TrimStructFields(&n)

	if n.UUID == "" {
		n.UUID = uuid.NewString()
	} else if _, err := uuid.Parse(n.UUID); err != nil {
		return n, invalid("uuid", "not a valid uuid: %v", err)
	}
	n.Name = util.TrimWithDefault(n.Name, DefaultNotificationName)

	method, err := invoker.ParseMethod(string(n.Method))
	if err != nil {
		return n, invalid("method", "%v", err)
	}
	n.Method = method

	enc, err := render.ParseEncoding(string(n.PostContentEncoding))
	if err != nil {
		return n, invalid("post_content_encoding", "%v", err)
	}
	n.PostContentEncoding = enc

	switch v := invoker.HTTPVersion(util.TrimAndUpper(string(n.HTTPVersion))); v {
	case "":
		n.HTTPVersion = invoker.HTTP10
	case invoker.HTTP10, invoker.HTTP11:
		n.HTTPVersion = v
	default:
		return n, invalid("http_version", "unknown http version %q", n.HTTPVersion)
	}

	switch t := TriggerIfCanMerge(util.TrimAndUpper(string(n.TriggerIfCanMerge))); t {
	case "":
		n.TriggerIfCanMerge = TriggerAlways
	case TriggerAlways, TriggerConflicting, TriggerNotConflicting:
		n.TriggerIfCanMerge = t
	default:
		return n, invalid("trigger_if_can_merge", "unknown value %q", n.TriggerIfCanMerge)
	}

	if n.URL == "" {
		return n, invalid("url", "URL not valid!")
	}
	if err := validateTemplateURL(n.URL); err != nil {
		return n, invalid("url", "URL not valid! %v", err)
	}

	if n.FilterRegexp != "" {
		if err := compiles(n.FilterRegexp); err != nil {
			return n, invalid("filter_regexp", "Filter regexp not valid! %s", strings.ReplaceAll(err.Error(), "\n", " "))
		}
		if n.FilterString == "" {
			return n, invalid("filter_string", "Filter string not set, nothing to match regexp against!")
		}
	}

	if n.InjectionURL != "" {
		if strings.Contains(n.InjectionURL, render.InjectionURLValue.Token()) {
			return n, invalid("injection_url", "%v: injection url may not reference %s", render.ErrInjectionCycle, render.InjectionURLValue.Token())
		}
		if err := validateTemplateURL(n.InjectionURL); err != nil {
			return n, invalid("injection_url", "Injection URL not valid! %v", err)
		}
	}
	if err := compiles(n.InjectionURLRegexp); err != nil {
		return n, invalid("injection_url_regexp", "Injection URL regexp not valid! %v", err)
	}
	if err := compiles(n.VariableRegex); err != nil {
		return n, invalid("variable_regex", "Variable regexp not valid! %v", err)
	}

	triggers := make([]pullrequest.Action, 0, len(n.Triggers))
	for _, raw := range n.Triggers {
		a, err := pullrequest.ParseAction(string(raw))
		if err != nil {
			return n, invalid("triggers", "%v", err)
		}
		triggers = append(triggers, a)
	}
	if len(triggers) == 0 {
		return n, invalid("triggers", "At least one trigger must be selected.")
	}
	n.Triggers = triggers

	states := make([]pullrequest.State, 0, len(n.TriggerIgnoreStateList))
	for _, raw := range n.TriggerIgnoreStateList {
		s, err := pullrequest.ParseState(string(raw))
		if err != nil {
			return n, invalid("trigger_ignore_state_list", "%v", err)
		}
		states = append(states, s)
	}
	n.TriggerIgnoreStateList = states

	for i := range n.Headers {
		h := &n.Headers[i]
		h.Name = strings.TrimSpace(h.Name)
		h.Value = strings.TrimSpace(h.Value)
		if h.Name == "" || h.Value == "" {
			return n, invalid("headers", "header name and value must both be set")
		}
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return n, invalid("headers", "header %q has invalid field name", h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return n, invalid("headers", "header %q has invalid field value", h.Name)
		}
	}

	if n.ProxyPort < 0 {
		return n, invalid("proxy_port", "proxy port must not be negative")
	}
	n.ProxySchema = util.TrimAndLower(n.ProxySchema)
	switch n.ProxySchema {
	case "", "http", "https", "socks5":
	default:
		return n, invalid("proxy_schema", "unsupported proxy schema %q", n.ProxySchema)
	}

	if n.OAuth2 != nil {
		o, err := normalizeOAuth2(*n.OAuth2)
		if err != nil {
			return n, err
		}
		n.OAuth2 = o
	}
	return n, nil
}

func normalizeOAuth2(o OAuth2) (*OAuth2, error) {
	util.TrimStructFields(&o)
	scopes := o.Scopes[:0]
	for _, s := range o.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	o.Scopes = scopes
	if o.TokenURL == "" && o.ClientID == "" && o.ClientSecret == "" {
		return nil, nil
	}
	if _, err := invoker.NormalizeURL(o.TokenURL); err != nil {
		return nil, invalid("oauth2.token_url", "token URL not valid! %v", err)
	}
	if o.ClientID == "" {
		return nil, invalid("oauth2.client_id", "client id must be set")
	}
	return &o, nil
}

// NormalizeButton trims every field, fills in defaults and validates b.
func NormalizeButton(b Button) (Button, error) {
	b = b.clone()
	util.TrimStructFields(&b)

	if b.UUID == "" {
		b.UUID = uuid.NewString()
	} else if _, err := uuid.Parse(b.UUID); err != nil {
		return b, invalid("uuid", "not a valid uuid: %v", err)
	}
	if b.Name == "" {
		return b, invalid("name", "button name must be set")
	}
	switch l := UserLevel(util.TrimAndUpper(string(b.UserLevel))); l {
	case "":
		b.UserLevel = UserLevelEveryone
	case UserLevelAdmin, UserLevelSystemAdmin, UserLevelEveryone:
		b.UserLevel = l
	default:
		return b, invalid("user_level", "unknown user level %q", b.UserLevel)
	}
	switch c := Confirmation(util.TrimAndUpper(string(b.Confirmation))); c {
	case "":
		b.Confirmation = ConfirmationOff
	case ConfirmationOn, ConfirmationOff:
		b.Confirmation = c
	default:
		return b, invalid("confirmation", "unknown confirmation %q", b.Confirmation)
	}
	if b.RedirectURL != "" {
		if err := validateTemplateURL(b.RedirectURL); err != nil {
			return b, invalid("redirect_url", "Redirect URL not valid! %v", err)
		}
	}
	if b.FormElements == nil {
		b.FormElements = []FormElement{}
	}
	for i := range b.FormElements {
		e := &b.FormElements[i]
		util.TrimStructFields(e)
		if e.Name == "" {
			return b, invalid("form_elements", "form element name must be set")
		}
		if e.Label == "" {
			return b, invalid("form_elements", "form element %q needs a label", e.Name)
		}
		switch t := FormType(util.TrimAndLower(string(e.Type))); t {
		case FormTypeInput, FormTypeTextarea, FormTypeRadio, FormTypeCheckbox:
			e.Type = t
		default:
			return b, invalid("form_elements", "form element %q has unknown type %q", e.Name, e.Type)
		}
		for j := range e.Options {
			util.TrimStructFields(&e.Options[j])
		}
	}
	return b, nil
}

// NormalizeData trims and defaults the global settings.
func NormalizeData(d Data) (Data, error) {
	util.TrimStructFields(&d)
	switch t := util.TrimAndUpper(d.KeyStoreType); t {
	case "":
		d.KeyStoreType = DefaultData().KeyStoreType
	case httpc.KeyStorePKCS12, httpc.KeyStorePEM:
		d.KeyStoreType = t
	default:
		return d, invalid("key_store_type", "unknown key store type %q", d.KeyStoreType)
	}
	switch l := UserLevel(util.TrimAndUpper(string(d.AdminRestriction))); l {
	case "":
		d.AdminRestriction = UserLevelAdmin
	case UserLevelAdmin, UserLevelSystemAdmin, UserLevelEveryone:
		d.AdminRestriction = l
	default:
		return d, invalid("admin_restriction", "unknown user level %q", d.AdminRestriction)
	}
	return d, nil
}
