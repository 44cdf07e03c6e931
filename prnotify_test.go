package prnotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sampleEvent() Event {
	repo := Repository{ID: 3, Name: "Core", Slug: "core"}
	repo.Project.Key = "OPS"
	var ev Event
	ev.Action = "OPENED"
	ev.PullRequest = PullRequest{ID: 42, Title: "Add <b>bold</b> support", State: "OPEN"}
	ev.PullRequest.FromRef.Repository = repo
	ev.PullRequest.ToRef.Repository = repo
	ev.PullRequest.ToRef.DisplayID = "main"
	return ev
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		enc  Encoding
		want string
	}{
		{EncodingNone, "42 Add <b>bold</b> support"},
		{EncodingHTML, "42 Add &lt;b&gt;bold&lt;/b&gt; support"},
		{EncodingURL, "42 Add+%3Cb%3Ebold%3C%2Fb%3E+support"},
	}
	for _, tc := range tests {
		got, err := Render(ctx, sampleEvent(), "${PULL_REQUEST_ID} ${PULL_REQUEST_TITLE}", tc.enc, nil)
		if err != nil {
			t.Fatalf("Render(%s): %v", tc.enc, err)
		}
		if got != tc.want {
			t.Fatalf("Render(%s) = %q, want %q", tc.enc, got, tc.want)
		}
	}
}

func TestEmbeddedDispatch(t *testing.T) {
	ctx := context.Background()
	var calls []string
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RequestURI())
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	st, err := OpenStore(ctx, StoreConfig{Driver: DriverSqlite, DriverConfig: &SqliteConfig{}})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer func() { _ = st.Close() }()

	svc := NewSettingsService(st, 0)
	if _, err := svc.SaveNotification(ctx, Notification{
		Name:     "hook",
		URL:      hook.URL + "/pr/${PULL_REQUEST_ID}/${PULL_REQUEST_TO_BRANCH}",
		Triggers: []Action{"OPENED"},
	}); err != nil {
		t.Fatalf("SaveNotification: %v", err)
	}

	d := NewDispatcher(svc, st, StaticPlatform{URL: "https://git.example.com"}, 0)
	responses, err := d.HandleEvent(ctx, sampleEvent())
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(responses) != 1 || responses[0].Status != http.StatusAccepted {
		t.Fatalf("unexpected responses %+v", responses)
	}
	if len(calls) != 1 || calls[0] != "/pr/42/main" {
		t.Fatalf("unexpected calls %v", calls)
	}

	stored, err := st.ListResponses(ctx, 10)
	if err != nil || len(stored) != 1 {
		t.Fatalf("ListResponses = %v, %v", stored, err)
	}

	h := NewHandler(svc, d, st, JWTConfig{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/notifications = %d: %s", rec.Code, rec.Body.String())
	}
	var list []Notification
	if err := json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("decode list: %v %+v", err, list)
	}
}
