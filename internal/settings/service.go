package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/loykin/prnotify/internal/common"
)

// StorageKey is the key the settings document is stored under.
const StorageKey = "prnotify.settings.v1"

// KV is the persistence the service needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Service reads and writes the settings document. Reads go through the
// Cache; writes are serialized and refresh the cache.
type Service struct {
	kv    KV
	cache *Cache
	mu    sync.Mutex
}

// NewService returns a service over kv. A zero ttl means DefaultCacheTTL.
func NewService(kv KV, ttl time.Duration) *Service {
	s := &Service{kv: kv}
	s.cache = NewCache(s.read, ttl)
	return s
}

// Cache exposes the read cache, for invalidation and change listeners.
func (s *Service) Cache() *Cache {
	return s.cache
}

func (s *Service) read(ctx context.Context) (*Settings, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var st Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to deserialize settings: %w", err)
	}
	if st.Notifications == nil {
		st.Notifications = []Notification{}
	}
	if st.Buttons == nil {
		st.Buttons = []Button{}
	}
	return &st, nil
}

func (s *Service) write(ctx context.Context, st *Settings) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, string(b)); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := s.cache.Refresh(ctx); err != nil {
		return err
	}
	return nil
}

// update runs fn on a fresh copy of the stored settings and persists the result.
func (s *Service) update(ctx context.Context, fn func(st *Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.cache.Refresh(ctx)
	if err != nil {
		return err
	}
	st := current.Clone()
	if err := fn(st); err != nil {
		return err
	}
	return s.write(ctx, st)
}

// Settings returns a copy of the whole document.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	st, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

// Notifications returns every notification.
func (s *Service) Notifications(ctx context.Context) ([]Notification, error) {
	return s.filterNotifications(ctx, func(Notification) bool { return true })
}

// NotificationsForProject returns the notifications scoped to projectKey.
func (s *Service) NotificationsForProject(ctx context.Context, projectKey string) ([]Notification, error) {
	return s.filterNotifications(ctx, func(n Notification) bool {
		return n.ProjectKey != "" && n.ProjectKey == projectKey
	})
}

// NotificationsForRepository returns the notifications scoped to one repository.
func (s *Service) NotificationsForRepository(ctx context.Context, projectKey, slug string) ([]Notification, error) {
	return s.filterNotifications(ctx, func(n Notification) bool {
		return n.ProjectKey != "" && n.ProjectKey == projectKey &&
			n.RepositorySlug != "" && n.RepositorySlug == slug
	})
}

func (s *Service) filterNotifications(ctx context.Context, keep func(Notification) bool) ([]Notification, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := []Notification{}
	for _, n := range st.Notifications {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Notification returns the notification with the given uuid or ErrNotFound.
func (s *Service) Notification(ctx context.Context, id string) (Notification, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return Notification{}, err
	}
	if i := indexNotification(st.Notifications, id); i >= 0 {
		return st.Notifications[i], nil
	}
	return Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// SaveNotification validates n and adds or replaces it. Credentials sent as
// Unchanged keep their stored values.
func (s *Service) SaveNotification(ctx context.Context, n Notification) (Notification, error) {
	saved, err := NormalizeNotification(n)
	if err != nil {
		return Notification{}, err
	}
	err = s.update(ctx, func(st *Settings) error {
		i := indexNotification(st.Notifications, saved.UUID)
		if i >= 0 {
			saved = saved.mergeSecrets(&st.Notifications[i])
			st.Notifications = append(st.Notifications[:i], st.Notifications[i+1:]...)
		} else {
			saved = saved.mergeSecrets(nil)
		}
		st.Notifications = append(st.Notifications, saved)
		return nil
	})
	if err != nil {
		return Notification{}, err
	}
	common.GetLogger().WithComponent("settings").WithNotification(saved.Name, saved.UUID).Info("notification saved")
	return saved, nil
}

// DeleteNotification removes the notification with the given uuid.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	return s.update(ctx, func(st *Settings) error {
		i := indexNotification(st.Notifications, id)
		if i < 0 {
			return fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
		st.Notifications = append(st.Notifications[:i], st.Notifications[i+1:]...)
		return nil
	})
}

// Buttons returns every button.
func (s *Service) Buttons(ctx context.Context) ([]Button, error) {
	return s.filterButtons(ctx, func(Button) bool { return true })
}

// ButtonsForProject returns the buttons scoped to projectKey.
func (s *Service) ButtonsForProject(ctx context.Context, projectKey string) ([]Button, error) {
	return s.filterButtons(ctx, func(b Button) bool {
		return b.ProjectKey != "" && b.ProjectKey == projectKey
	})
}

// ButtonsForRepository returns the buttons scoped to one repository.
func (s *Service) ButtonsForRepository(ctx context.Context, projectKey, slug string) ([]Button, error) {
	return s.filterButtons(ctx, func(b Button) bool {
		return b.ProjectKey != "" && b.ProjectKey == projectKey &&
			b.RepositorySlug != "" && b.RepositorySlug == slug
	})
}

func (s *Service) filterButtons(ctx context.Context, keep func(Button) bool) ([]Button, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := []Button{}
	for _, b := range st.Buttons {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Button returns the button with the given uuid or ErrNotFound.
func (s *Service) Button(ctx context.Context, id string) (Button, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return Button{}, err
	}
	if i := indexButton(st.Buttons, id); i >= 0 {
		return st.Buttons[i], nil
	}
	return Button{}, fmt.Errorf("button %s: %w", id, ErrNotFound)
}

// SaveButton validates b and adds or replaces it.
func (s *Service) SaveButton(ctx context.Context, b Button) (Button, error) {
	saved, err := NormalizeButton(b)
	if err != nil {
		return Button{}, err
	}
	err = s.update(ctx, func(st *Settings) error {
		if i := indexButton(st.Buttons, saved.UUID); i >= 0 {
			st.Buttons = append(st.Buttons[:i], st.Buttons[i+1:]...)
		}
		st.Buttons = append(st.Buttons, saved)
		return nil
	})
	if err != nil {
		return Button{}, err
	}
	return saved, nil
}

// DeleteButton removes the button with the given uuid.
func (s *Service) DeleteButton(ctx context.Context, id string) error {
	return s.update(ctx, func(st *Settings) error {
		i := indexButton(st.Buttons, id)
		if i < 0 {
			return fmt.Errorf("button %s: %w", id, ErrNotFound)
		}
		st.Buttons = append(st.Buttons[:i], st.Buttons[i+1:]...)
		return nil
	})
}

// Data returns the global settings.
func (s *Service) Data(ctx context.Context) (Data, error) {
	st, err := s.cache.Get(ctx)
	if err != nil {
		return Data{}, err
	}
	return st.Data, nil
}

// SaveData replaces the global settings. A key store password sent as
// Unchanged keeps the stored one.
func (s *Service) SaveData(ctx context.Context, d Data) (Data, error) {
	saved, err := NormalizeData(d)
	if err != nil {
		return Data{}, err
	}
	err = s.update(ctx, func(st *Settings) error {
		saved = saved.mergeSecrets(st.Data)
		st.Data = saved
		return nil
	})
	if err != nil {
		return Data{}, err
	}
	return saved, nil
}

// Replace validates every entry of next and stores it as the whole
// document. Unchanged credentials resolve against the stored entries with
// the same uuid.
func (s *Service) Replace(ctx context.Context, next *Settings) error {
	data, err := NormalizeData(next.Data)
	if err != nil {
		return err
	}
	notifications := make([]Notification, 0, len(next.Notifications))
	for _, n := range next.Notifications {
		normalized, err := NormalizeNotification(n)
		if err != nil {
			return fmt.Errorf("notification %q: %w", n.Name, err)
		}
		notifications = append(notifications, normalized)
	}
	buttons := make([]Button, 0, len(next.Buttons))
	for _, b := range next.Buttons {
		normalized, err := NormalizeButton(b)
		if err != nil {
			return fmt.Errorf("button %q: %w", b.Name, err)
		}
		buttons = append(buttons, normalized)
	}
	return s.update(ctx, func(st *Settings) error {
		for i, n := range notifications {
			var old *Notification
			if j := indexNotification(st.Notifications, n.UUID); j >= 0 {
				old = &st.Notifications[j]
			}
			notifications[i] = n.mergeSecrets(old)
		}
		st.Data = data.mergeSecrets(st.Data)
		st.Notifications = notifications
		st.Buttons = buttons
		return nil
	})
}

func indexNotification(list []Notification, id string) int {
	for i, n := range list {
		if n.UUID == id {
			return i
		}
	}
	return -1
}

func indexButton(list []Button, id string) int {
	for i, b := range list {
		if b.UUID == id {
			return i
		}
	}
	return -1
}
