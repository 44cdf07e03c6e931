package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/loykin/prnotify/internal/httpc"
	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/render"
)

// UserLevel is the minimum role required to see or press a button.
type UserLevel string

const (
	UserLevelAdmin       UserLevel = "ADMIN"
	UserLevelSystemAdmin UserLevel = "SYSTEM_ADMIN"
	UserLevelEveryone    UserLevel = "EVERYONE"
)

var userLevelRank = map[UserLevel]int{
	UserLevelEveryone:    0,
	UserLevelAdmin:       1,
	UserLevelSystemAdmin: 2,
}

// ParseUserLevel accepts the three levels case-insensitively.
func ParseUserLevel(s string) (UserLevel, error) {
	l := UserLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := userLevelRank[l]; !ok {
		return "", fmt.Errorf("unknown user level: %q", s)
	}
	return l, nil
}

// Permits reports whether a user holding level have may act where l is
// required. An empty requirement means EVERYONE; unknown levels rank lowest.
func (l UserLevel) Permits(have UserLevel) bool {
	if l == "" {
		return true
	}
	return userLevelRank[have] >= userLevelRank[l]
}

// Confirmation toggles the confirmation dialog of a button.
type Confirmation string

const (
	ConfirmationOn  Confirmation = "ON"
	ConfirmationOff Confirmation = "OFF"
)

// TriggerIfCanMerge restricts a notification by the merge-conflict status of the pull request.
type TriggerIfCanMerge string

const (
	TriggerAlways         TriggerIfCanMerge = "ALWAYS"
	TriggerConflicting    TriggerIfCanMerge = "CONFLICTING"
	TriggerNotConflicting TriggerIfCanMerge = "NOT_CONFLICTING"
)

// Accepts reports whether an event with the given conflict status passes.
// An unknown status always passes.
func (t TriggerIfCanMerge) Accepts(conflicted *bool) bool {
	if conflicted == nil {
		return true
	}
	switch t {
	case TriggerConflicting:
		return *conflicted
	case TriggerNotConflicting:
		return !*conflicted
	default:
		return true
	}
}

// FormType is the input widget of a button form element.
type FormType string

const (
	FormTypeInput    FormType = "input"
	FormTypeTextarea FormType = "textarea"
	FormTypeRadio    FormType = "radio"
	FormTypeCheckbox FormType = "checkbox"
)

// OAuth2 holds client-credentials settings used to obtain a bearer token.
type OAuth2 struct {
	TokenURL     string   `json:"tokenUrl" yaml:"tokenUrl"`
	ClientID     string   `json:"clientId" yaml:"clientId"`
	ClientSecret string   `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// Notification is one configured outbound call.
type Notification struct {
	UUID                   string               `json:"uuid" yaml:"uuid"`
	Name                   string               `json:"name" yaml:"name"`
	URL                    string               `json:"url" yaml:"url"`
	Method                 invoker.Method       `json:"method" yaml:"method"`
	Headers                []invoker.Header     `json:"headers,omitempty" yaml:"headers,omitempty"`
	PostContent            string               `json:"postContent,omitempty" yaml:"postContent,omitempty"`
	PostContentEncoding    render.Encoding      `json:"postContentEncoding" yaml:"postContentEncoding"`
	User                   string               `json:"user,omitempty" yaml:"user,omitempty"`
	Password               string               `json:"password,omitempty" yaml:"password,omitempty"`
	ProxyServer            string               `json:"proxyServer,omitempty" yaml:"proxyServer,omitempty"`
	ProxyPort              int                  `json:"proxyPort,omitempty" yaml:"proxyPort,omitempty"`
	ProxySchema            string               `json:"proxySchema,omitempty" yaml:"proxySchema,omitempty"`
	ProxyUser              string               `json:"proxyUser,omitempty" yaml:"proxyUser,omitempty"`
	ProxyPassword          string               `json:"proxyPassword,omitempty" yaml:"proxyPassword,omitempty"`
	InjectionURL           string               `json:"injectionUrl,omitempty" yaml:"injectionUrl,omitempty"`
	InjectionURLRegexp     string               `json:"injectionUrlRegexp,omitempty" yaml:"injectionUrlRegexp,omitempty"`
	InjectionURLJSONPath   string               `json:"injectionUrlJsonPath,omitempty" yaml:"injectionUrlJsonPath,omitempty"`
	VariableName           string               `json:"variableName,omitempty" yaml:"variableName,omitempty"`
	VariableRegex          string               `json:"variableRegex,omitempty" yaml:"variableRegex,omitempty"`
	FilterString           string               `json:"filterString,omitempty" yaml:"filterString,omitempty"`
	FilterRegexp           string               `json:"filterRegexp,omitempty" yaml:"filterRegexp,omitempty"`
	Triggers               []pullrequest.Action `json:"triggers" yaml:"triggers"`
	TriggerIgnoreStateList []pullrequest.State  `json:"triggerIgnoreStateList,omitempty" yaml:"triggerIgnoreStateList,omitempty"`
	TriggerIfCanMerge      TriggerIfCanMerge    `json:"triggerIfCanMerge" yaml:"triggerIfCanMerge"`
	ProjectKey             string               `json:"projectKey,omitempty" yaml:"projectKey,omitempty"`
	RepositorySlug         string               `json:"repositorySlug,omitempty" yaml:"repositorySlug,omitempty"`
	HTTPVersion            invoker.HTTPVersion  `json:"httpVersion" yaml:"httpVersion"`
	OAuth2                 *OAuth2              `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`
}

// Proxy returns the proxy the notification is sent through, or nil.
func (n Notification) Proxy() *invoker.Proxy {
	p := &invoker.Proxy{
		Host:     n.ProxyServer,
		Port:     n.ProxyPort,
		Scheme:   n.ProxySchema,
		User:     n.ProxyUser,
		Password: n.ProxyPassword,
	}
	if !p.Enabled() {
		return nil
	}
	return p
}

// RenderConfig exposes the fields the variable catalog reads.
func (n Notification) RenderConfig() *render.Config {
	return &render.Config{
		VariableName:         n.VariableName,
		VariableRegex:        n.VariableRegex,
		InjectionURL:         n.InjectionURL,
		InjectionURLRegexp:   n.InjectionURLRegexp,
		InjectionURLJSONPath: n.InjectionURLJSONPath,
		User:                 n.User,
		Password:             n.Password,
		Proxy:                n.Proxy(),
		HTTPVersion:          n.HTTPVersion,
	}
}

// TriggeredBy reports whether action is in the trigger list.
func (n Notification) TriggeredBy(action pullrequest.Action) bool {
	return slices.Contains(n.Triggers, action)
}

// Ignores reports whether pull requests in state are skipped.
func (n Notification) Ignores(state pullrequest.State) bool {
	return slices.Contains(n.TriggerIgnoreStateList, state)
}

// MatchesRepository checks the optional project key and repository slug
// against the target repository of a pull request.
func (n Notification) MatchesRepository(repo pullrequest.Repository) bool {
	return scopeMatches(n.ProjectKey, n.RepositorySlug, repo)
}

// FormOption is one choice of a radio or checkbox element.
type FormOption struct {
	Name         string `json:"name" yaml:"name"`
	Label        string `json:"label" yaml:"label"`
	DefaultValue bool   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// FormElement is one field of a button form.
type FormElement struct {
	Name         string       `json:"name" yaml:"name"`
	Label        string       `json:"label" yaml:"label"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	DefaultValue string       `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Required     bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Type         FormType     `json:"type" yaml:"type"`
	Options      []FormOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// Button is a manual trigger shown on pull requests.
type Button struct {
	UUID             string        `json:"uuid" yaml:"uuid"`
	Name             string        `json:"name" yaml:"name"`
	UserLevel        UserLevel     `json:"userLevel" yaml:"userLevel"`
	Confirmation     Confirmation  `json:"confirmation" yaml:"confirmation"`
	ConfirmationText string        `json:"confirmationText,omitempty" yaml:"confirmationText,omitempty"`
	RedirectURL      string        `json:"redirectUrl,omitempty" yaml:"redirectUrl,omitempty"`
	ProjectKey       string        `json:"projectKey,omitempty" yaml:"projectKey,omitempty"`
	RepositorySlug   string        `json:"repositorySlug,omitempty" yaml:"repositorySlug,omitempty"`
	FormElements     []FormElement `json:"formElements" yaml:"formElements"`
}

// MatchesRepository checks the optional project key and repository slug.
func (b Button) MatchesRepository(repo pullrequest.Repository) bool {
	return scopeMatches(b.ProjectKey, b.RepositorySlug, repo)
}

func scopeMatches(projectKey, slug string, repo pullrequest.Repository) bool {
	if projectKey != "" && projectKey != repo.Project.Key {
		return false
	}
	if slug != "" && slug != repo.Slug {
		return false
	}
	return true
}

// Data is the global part of the settings.
type Data struct {
	AcceptAnyCertificate bool      `json:"acceptAnyCertificate" yaml:"acceptAnyCertificate"`
	KeyStore             string    `json:"keyStore,omitempty" yaml:"keyStore,omitempty"`
	KeyStoreType         string    `json:"keyStoreType,omitempty" yaml:"keyStoreType,omitempty"`
	KeyStorePassword     string    `json:"keyStorePassword,omitempty" yaml:"keyStorePassword,omitempty"`
	AdminRestriction     UserLevel `json:"adminRestriction" yaml:"adminRestriction"`
}

// LoadKeyStore loads the configured client key store. It returns nil when no
// key store path is set.
func (d Data) LoadKeyStore() *httpc.ClientKeyStore {
	return httpc.LoadClientKeyStore(d.KeyStore, d.KeyStoreType, d.KeyStorePassword)
}

// DefaultData is what an empty installation starts with.
func DefaultData() Data {
	return Data{KeyStoreType: httpc.KeyStorePKCS12, AdminRestriction: UserLevelAdmin}
}

// Settings is the whole persisted document.
type Settings struct {
	Data          Data           `json:"data" yaml:"data"`
	Notifications []Notification `json:"notifications" yaml:"notifications"`
	Buttons       []Button       `json:"buttons" yaml:"buttons"`
}

// Default returns empty settings with DefaultData.
func Default() *Settings {
	return &Settings{Data: DefaultData(), Notifications: []Notification{}, Buttons: []Button{}}
}

// Clone returns a copy that shares no slices with s.
func (s *Settings) Clone() *Settings {
	cp := &Settings{Data: s.Data}
	cp.Notifications = make([]Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		cp.Notifications[i] = n.clone()
	}
	cp.Buttons = make([]Button, len(s.Buttons))
	for i, b := range s.Buttons {
		cp.Buttons[i] = b.clone()
	}
	return cp
}

func (n Notification) clone() Notification {
	n.Headers = slices.Clone(n.Headers)
	n.Triggers = slices.Clone(n.Triggers)
	n.TriggerIgnoreStateList = slices.Clone(n.TriggerIgnoreStateList)
	if n.OAuth2 != nil {
		o := *n.OAuth2
		o.Scopes = slices.Clone(o.Scopes)
		n.OAuth2 = &o
	}
	return n
}

func (b Button) clone() Button {
	elements := make([]FormElement, len(b.FormElements))
	for i, e := range b.FormElements {
		e.Options = slices.Clone(e.Options)
		elements[i] = e
	}
	b.FormElements = elements
	return b
}

// SortNotifications orders notifications by name, then uuid.
func SortNotifications(list []Notification) {
	slices.SortStableFunc(list, func(a, b Notification) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.UUID, b.UUID)
	})
}

// SortButtons orders buttons by name, then uuid.
func SortButtons(list []Button) {
	slices.SortStableFunc(list, func(a, b Button) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.UUID, b.UUID)
	})
}
