package settings

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
data:
  acceptAnyCertificate: true
  keyStoreType: pem
notifications:
  - uuid: 0f8fad5b-d9cb-469f-a165-70867728950e
    name: Jenkins
    url: http://jenkins.example.com/job/build?pr=${PULL_REQUEST_ID}
    method: post
    postContent: '{"title":"${PULL_REQUEST_TITLE}"}'
    postContentEncoding: json
    user: ci
    password: hunter2
    headers:
      - name: X-Source
        value: prnotify
    triggers: [OPENED, RESCOPED_FROM]
    triggerIgnoreStateList: [DECLINED]
buttons:
  - name: Deploy
    formElements:
      - name: env
        label: Environment
        type: radio
        options:
          - name: prod
            label: Production
`

func TestImportExportYAML(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	if err := svc.ImportYAML(ctx, strings.NewReader(sampleYAML)); err != nil {
		t.Fatalf("import: %v", err)
	}
	n, err := svc.Notification(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if n.Method != "POST" || n.PostContentEncoding != "JSON" || len(n.Triggers) != 2 {
		t.Fatalf("unexpected notification %+v", n)
	}
	d, _ := svc.Data(ctx)
	if !d.AcceptAnyCertificate || d.KeyStoreType != "PEM" {
		t.Fatalf("unexpected data %+v", d)
	}

	var out bytes.Buffer
	if err := svc.ExportYAML(ctx, &out, false); err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(out.String(), "hunter2") {
		t.Fatalf("export leaked a password:\n%s", out.String())
	}
	if !strings.Contains(out.String(), Unchanged) {
		t.Fatalf("export should carry the sentinel:\n%s", out.String())
	}

	// a redacted export imports back without losing credentials
	if err := svc.ImportYAML(ctx, bytes.NewReader(out.Bytes())); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	n, _ = svc.Notification(ctx, "0f8fad5b-d9cb-469f-a165-70867728950e")
	if n.Password != "hunter2" || n.User != "ci" {
		t.Fatalf("credentials lost on re-import: %+v", n)
	}

	out.Reset()
	if err := svc.ExportYAML(ctx, &out, true); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), "hunter2") {
		t.Fatalf("export with secrets should carry the password")
	}
}

func TestDecodeYAML_UnknownField(t *testing.T) {
	if _, err := DecodeYAML(strings.NewReader("notifications:\n  - urll: http://x\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestDecodeYAML_Empty(t *testing.T) {
	st, err := DecodeYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Notifications == nil || st.Buttons == nil || st.Data.AdminRestriction != UserLevelAdmin {
		t.Fatalf("unexpected empty settings %+v", st)
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte("notifications: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc := NewService(newMemKV(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan error, 4)
	if err := svc.WatchFile(ctx, path, func(err error) { results <- err }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-results:
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("settings file change not picked up")
	}
	list, err := svc.Notifications(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "Jenkins" {
		t.Fatalf("unexpected notifications after reload: %+v %v", list, err)
	}
}
