package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/loykin/prnotify/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const eventYAML = `action: opened
pullRequest:
  id: 7
  version: 1
  title: Fix login
  state: OPEN
  author:
    user: {id: 1, name: alice, slug: alice}
  fromRef:
    id: refs/heads/feature
    displayId: feature
    latestCommit: aaa
    repository: {id: 3, name: Core, slug: core, project: {id: 9, key: OPS}}
  toRef:
    id: refs/heads/main
    displayId: main
    latestCommit: bbb
    repository: {id: 3, name: Core, slug: core, project: {id: 9, key: OPS}}
user: {id: 5, name: admin, slug: admin}
`

// setViper sets keys on the global viper and restores them after the test.
func setViper(t *testing.T, kv map[string]any) {
	t.Helper()
	v := viper.GetViper()
	for k, val := range kv {
		prev := v.Get(k)
		v.Set(k, val)
		t.Cleanup(func() { v.Set(k, prev) })
	}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	defer cmd.SetOut(nil)
	if err := cmd.RunE(cmd, args); err != nil {
		t.Fatalf("%s: %v", cmd.Name(), err)
	}
	return out.String()
}

type hook struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
}

func newHook(t *testing.T) (*httptest.Server, *hook) {
	t.Helper()
	h := &hook{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		h.mu.Lock()
		h.paths = append(h.paths, r.URL.RequestURI())
		h.bodies = append(h.bodies, string(b))
		h.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, h
}

// workspace writes a config with a sqlite store, an event file and a
// settings file pointing at hookURL.
func workspace(t *testing.T, hookURL string, extraConfig string) (cfgPath, eventPath, settingsPath string) {
	t.Helper()
	tdir := t.TempDir()
	settingsPath = writeFile(t, tdir, "settings.yaml", `
notifications:
  - uuid: 6f1c1c57-3c2b-4d0e-9d59-2f7f0b0d6a11
    name: build
    url: `+hookURL+`/build/${PULL_REQUEST_ID}?title=${PULL_REQUEST_TITLE}
    method: post
    postContent: '{"title":"${PULL_REQUEST_TITLE}"}'
    postContentEncoding: json
    triggers: [OPENED]
  - uuid: 0d5b8f3e-8f0b-4a8e-b1a4-8c1b7c3c2d22
    name: deploy
    url: `+hookURL+`/deploy?env=${BUTTON_FORM_DATA}
    triggers: [BUTTON_TRIGGER]
buttons:
  - uuid: 9a3e5b0c-2f4d-4c1a-8e6b-7d2c1f0e9b33
    name: Deploy
    redirectUrl: `+hookURL+`/done/${PULL_REQUEST_ID}
`)
	cfgPath = writeFile(t, tdir, "config.yaml", `---
logging:
  level: error
store:
  type: sqlite
  sqlite:
    path: `+filepath.Join(tdir, "prnotify.db")+`
`+extraConfig)
	eventPath = writeFile(t, tdir, "event.yaml", eventYAML)
	return cfgPath, eventPath, settingsPath
}

func TestRenderCmd_WithoutNotification(t *testing.T) {
	_, eventPath, _ := workspace(t, "http://unused", "")
	setViper(t, map[string]any{
		"config":              "",
		"render_template":     "${PULL_REQUEST_TITLE}-${PULL_REQUEST_ID}",
		"render_event":        eventPath,
		"render_encoding":     "url",
		"render_notification": "",
	})
	out := run(t, renderCmd)
	if strings.TrimSpace(out) != "Fix+login-7" {
		t.Fatalf("unexpected render output %q", out)
	}
}

func TestRenderCmd_InvalidEncoding(t *testing.T) {
	setViper(t, map[string]any{"render_encoding": "base64"})
	if err := renderCmd.RunE(renderCmd, nil); err == nil {
		t.Fatalf("expected error for unknown encoding")
	}
}

func TestSettingsCmd_ImportListExport(t *testing.T) {
	cfgPath, _, settingsPath := workspace(t, "http://hooks.example.com", "")
	setViper(t, map[string]any{"config": cfgPath, "with_secrets": false})

	out := run(t, settingsImportCmd, settingsPath)
	if !strings.Contains(out, "imported 2 notifications, 1 buttons") {
		t.Fatalf("unexpected import output %q", out)
	}

	out = run(t, settingsListCmd)
	for _, want := range []string{"notification", "build", "deploy", "button", "Deploy", "EVERYONE", "POST"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	out = run(t, settingsExportCmd)
	if !strings.Contains(out, "6f1c1c57-3c2b-4d0e-9d59-2f7f0b0d6a11") || !strings.Contains(out, "notifications:") {
		t.Fatalf("unexpected export:\n%s", out)
	}
}

func TestDispatchAndResponsesCmd(t *testing.T) {
	srv, h := newHook(t)
	cfgPath, eventPath, settingsPath := workspace(t, srv.URL, "settings:\n  file: SETTINGS\n")
	// point settings.file at the generated settings document
	cfg := strings.Replace(readFile(t, cfgPath), "SETTINGS", settingsPath, 1)
	cfgPath = writeFile(t, filepath.Dir(cfgPath), "config.yaml", cfg)

	setViper(t, map[string]any{
		"config":         cfgPath,
		"dispatch_event": eventPath,
		"dispatch_json":  true,
	})
	out := run(t, dispatchCmd)
	var responses []store.NotificationResponse
	if err := json.Unmarshal([]byte(out), &responses); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(responses) != 1 || responses[0].NotificationName != "build" || responses[0].Status != http.StatusOK {
		t.Fatalf("unexpected responses %+v", responses)
	}
	h.mu.Lock()
	if len(h.paths) != 1 || h.paths[0] != "/build/7?title=Fix+login" || h.bodies[0] != `{"title":"Fix login"}` {
		t.Fatalf("unexpected calls %v %v", h.paths, h.bodies)
	}
	h.mu.Unlock()

	setViper(t, map[string]any{"responses_limit": 10, "responses_json": false})
	out = run(t, responsesCmd)
	if !strings.Contains(out, "ok") || !strings.Contains(out, "/build/7") || !strings.Contains(out, "status=200") {
		t.Fatalf("unexpected responses output %q", out)
	}
}

func TestPressCmd(t *testing.T) {
	srv, h := newHook(t)
	cfgPath, eventPath, settingsPath := workspace(t, srv.URL, "")
	setViper(t, map[string]any{"config": cfgPath})
	_ = run(t, settingsImportCmd, settingsPath)

	setViper(t, map[string]any{
		"press_event": eventPath,
		"press_json":  false,
		"form_data":   "prod",
	})
	out := run(t, pressCmd, "9a3e5b0c-2f4d-4c1a-8e6b-7d2c1f0e9b33")
	if !strings.Contains(out, "deploy") || !strings.Contains(out, "redirect: "+srv.URL+"/done/7") {
		t.Fatalf("unexpected press output %q", out)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.paths) != 1 || h.paths[0] != "/deploy?env=prod" {
		t.Fatalf("unexpected calls %v", h.paths)
	}

	if err := pressCmd.RunE(pressCmd, []string{"unknown"}); err == nil {
		t.Fatalf("expected error for an unknown button")
	}
}

func TestTokenCmd(t *testing.T) {
	cfgPath, _, _ := workspace(t, "http://unused", "server:\n  jwt:\n    secret: s3cret\n    issuer: prnotify\n")
	setViper(t, map[string]any{
		"config":        cfgPath,
		"token_subject": "ci",
		"token_level":   "system_admin",
		"token_ttl":     0,
	})
	out := strings.TrimSpace(run(t, tokenCmd))
	tok, err := jwt.Parse(out, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	if err != nil || !tok.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"] != "ci" || claims["level"] != "SYSTEM_ADMIN" || claims["iss"] != "prnotify" {
		t.Fatalf("unexpected claims %v", claims)
	}

	setViper(t, map[string]any{"token_level": "root"})
	if err := tokenCmd.RunE(tokenCmd, nil); err == nil {
		t.Fatalf("expected error for an unknown level")
	}
}

func TestTokenCmd_NoSecret(t *testing.T) {
	cfgPath, _, _ := workspace(t, "http://unused", "")
	setViper(t, map[string]any{"config": cfgPath, "token_level": "admin"})
	if err := tokenCmd.RunE(tokenCmd, nil); err == nil {
		t.Fatalf("expected error without a secret")
	}
}
