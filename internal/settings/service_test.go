package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/loykin/prnotify/internal/invoker"
	"github.com/loykin/prnotify/internal/pullrequest"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
	gets int
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

func TestService_EmptyStoreServesDefaults(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	d, err := svc.Data(ctx)
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if d.AdminRestriction != UserLevelAdmin {
		t.Fatalf("default admin restriction = %q", d.AdminRestriction)
	}
	list, err := svc.Notifications(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no notifications, got %v %v", list, err)
	}
}

func TestService_SaveAndFindNotification(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	saved, err := svc.SaveNotification(ctx, validNotification())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := svc.Notification(ctx, saved.UUID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.URL != saved.URL || got.Name != DefaultNotificationName {
		t.Fatalf("unexpected notification %+v", got)
	}

	if _, err := svc.Notification(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SaveNotificationValidationError(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	n := validNotification()
	n.Triggers = nil
	_, err := svc.SaveNotification(context.Background(), n)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "triggers" {
		t.Fatalf("expected triggers validation error, got %v", err)
	}
}

func TestService_UnchangedKeepsCredentials(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	n := validNotification()
	n.User = "admin"
	n.Password = "s3cret"
	n.ProxyServer = "proxy"
	n.ProxyPort = 8080
	n.ProxyUser = "pu"
	n.ProxyPassword = "pp"
	n.OAuth2 = &OAuth2{TokenURL: "http://idp/token", ClientID: "client", ClientSecret: "cs"}
	saved, err := svc.SaveNotification(ctx, n)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	redacted := saved.Redacted()
	if redacted.Password != Unchanged || redacted.User != Unchanged || redacted.OAuth2.ClientSecret != Unchanged {
		t.Fatalf("credentials not redacted: %+v", redacted)
	}
	if saved.Password != "s3cret" {
		t.Fatalf("redaction modified the original")
	}

	redacted.Name = "renamed"
	again, err := svc.SaveNotification(ctx, redacted)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if again.User != "admin" || again.Password != "s3cret" || again.ProxyUser != "pu" || again.ProxyPassword != "pp" {
		t.Fatalf("credentials not kept: %+v", again)
	}
	if again.OAuth2 == nil || again.OAuth2.ClientSecret != "cs" {
		t.Fatalf("client secret not kept: %+v", again.OAuth2)
	}
	list, _ := svc.Notifications(ctx)
	if len(list) != 1 || list[0].Name != "renamed" {
		t.Fatalf("expected the notification to be replaced, got %+v", list)
	}
}

func TestService_UnchangedOnNewNotificationIsEmpty(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	n := validNotification()
	n.Password = Unchanged
	saved, err := svc.SaveNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Password != "" {
		t.Fatalf("sentinel without a stored value should resolve empty, got %q", saved.Password)
	}
}

func TestService_ScopedQueries(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()
	for _, scope := range [][2]string{{"", ""}, {"PRJ", ""}, {"PRJ", "repo"}, {"OTHER", "repo"}} {
		n := validNotification()
		n.ProjectKey, n.RepositorySlug = scope[0], scope[1]
		if _, err := svc.SaveNotification(ctx, n); err != nil {
			t.Fatalf("save: %v", err)
		}
		b := Button{Name: "b", ProjectKey: scope[0], RepositorySlug: scope[1]}
		if _, err := svc.SaveButton(ctx, b); err != nil {
			t.Fatalf("save button: %v", err)
		}
	}

	byProject, _ := svc.NotificationsForProject(ctx, "PRJ")
	if len(byProject) != 2 {
		t.Fatalf("project PRJ: got %d", len(byProject))
	}
	byRepo, _ := svc.NotificationsForRepository(ctx, "PRJ", "repo")
	if len(byRepo) != 1 {
		t.Fatalf("repo PRJ/repo: got %d", len(byRepo))
	}
	buttons, _ := svc.ButtonsForRepository(ctx, "OTHER", "repo")
	if len(buttons) != 1 {
		t.Fatalf("buttons OTHER/repo: got %d", len(buttons))
	}
	buttons, _ = svc.ButtonsForProject(ctx, "PRJ")
	if len(buttons) != 2 {
		t.Fatalf("buttons PRJ: got %d", len(buttons))
	}
}

func TestService_Delete(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	n, _ := svc.SaveNotification(ctx, validNotification())
	b, _ := svc.SaveButton(ctx, Button{Name: "Deploy"})

	if err := svc.DeleteNotification(ctx, n.UUID); err != nil {
		t.Fatalf("delete notification: %v", err)
	}
	if err := svc.DeleteNotification(ctx, n.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	if err := svc.DeleteButton(ctx, b.UUID); err != nil {
		t.Fatalf("delete button: %v", err)
	}
	if _, err := svc.Button(ctx, b.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SaveDataKeepsKeyStorePassword(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	if _, err := svc.SaveData(ctx, Data{KeyStore: "/etc/ks.p12", KeyStorePassword: "pw"}); err != nil {
		t.Fatalf("save data: %v", err)
	}
	d, err := svc.SaveData(ctx, Data{KeyStore: "/etc/ks.p12", KeyStorePassword: Unchanged, AcceptAnyCertificate: true})
	if err != nil {
		t.Fatalf("save data: %v", err)
	}
	if d.KeyStorePassword != "pw" || !d.AcceptAnyCertificate {
		t.Fatalf("unexpected data %+v", d)
	}
	if d.Redacted().KeyStorePassword != Unchanged {
		t.Fatalf("key store password not redacted")
	}
}

func TestService_DataChangeListener(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()
	var seen []Data
	svc.Cache().OnDataChange(func(d Data) { seen = append(seen, d) })

	if _, err := svc.SaveData(ctx, Data{AcceptAnyCertificate: true}); err != nil {
		t.Fatalf("save data: %v", err)
	}
	if _, err := svc.SaveNotification(ctx, validNotification()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(seen) != 1 || !seen[0].AcceptAnyCertificate {
		t.Fatalf("listener should fire once for the data change, got %+v", seen)
	}
	if _, err := svc.SaveData(ctx, Data{AcceptAnyCertificate: false}); err != nil {
		t.Fatalf("save data: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("listener should fire again, got %d", len(seen))
	}
}

func TestService_ReplaceKeepsSecretsByUUID(t *testing.T) {
	svc := NewService(newMemKV(), 0)
	ctx := context.Background()

	n := validNotification()
	n.Password = "pw"
	n.User = "u"
	saved, _ := svc.SaveNotification(ctx, n)

	next := Default()
	r := saved.Redacted()
	r.Headers = []invoker.Header{{Name: "X-Env", Value: "prod"}}
	next.Notifications = append(next.Notifications, r)
	next.Buttons = append(next.Buttons, Button{Name: "Retry"})
	if err := svc.Replace(ctx, next); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := svc.Notification(ctx, saved.UUID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Password != "pw" || len(got.Headers) != 1 {
		t.Fatalf("unexpected notification after replace %+v", got)
	}
	buttons, _ := svc.Buttons(ctx)
	if len(buttons) != 1 || buttons[0].UUID == "" {
		t.Fatalf("unexpected buttons %+v", buttons)
	}

	bad := Default()
	bad.Notifications = []Notification{{URL: "http://x", Triggers: []pullrequest.Action{}}}
	var ve *ValidationError
	if err := svc.Replace(ctx, bad); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSortNotifications(t *testing.T) {
	list := []Notification{{Name: "b", UUID: "2"}, {Name: "a", UUID: "3"}, {Name: "b", UUID: "1"}}
	SortNotifications(list)
	if list[0].Name != "a" || list[1].UUID != "1" || list[2].UUID != "2" {
		t.Fatalf("unexpected order %+v", list)
	}
}
