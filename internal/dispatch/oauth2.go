package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/loykin/prnotify/internal/settings"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenSources reuses client-credentials tokens until they expire. Entries
// are keyed by the full credential set so an edited notification gets a
// fresh source.
type tokenSources struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

func (t *tokenSources) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}

func tokenKey(uuid string, o *settings.OAuth2) string {
	return strings.Join([]string{uuid, o.TokenURL, o.ClientID, o.ClientSecret, strings.Join(o.Scopes, " ")}, "\x00")
}

// bearer returns an access token for o, fetched through hc.
func (t *tokenSources) bearer(ctx context.Context, uuid string, o *settings.OAuth2, hc *http.Client) (string, error) {
	if strings.TrimSpace(o.TokenURL) == "" {
		return "", errors.New("oauth2: token_url is required for client_credentials grant")
	}
	key := tokenKey(uuid, o)

	t.mu.Lock()
	src, ok := t.sources[key]
	if !ok {
		cc := &clientcredentials.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			TokenURL:     o.TokenURL,
			Scopes:       o.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		// the source outlives this call, so it must not inherit its cancellation
		base := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, hc)
		src = oauth2.ReuseTokenSource(nil, cc.TokenSource(base))
		if t.sources == nil {
			t.sources = map[string]oauth2.TokenSource{}
		}
		t.sources[key] = src
	}
	t.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		t.mu.Lock()
		delete(t.sources, key)
		t.mu.Unlock()
		return "", fmt.Errorf("oauth2: acquire token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("oauth2: token response has no access_token")
	}
	return tok.AccessToken, nil
}
