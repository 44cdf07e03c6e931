package settings

// Unchanged is sent in place of a stored credential. Saving it keeps the
// stored value; read APIs return it instead of the secret.
const Unchanged = "KEEP_THIS_TO_LEAVE_UNCHANGED"

func keepIfUnchanged(newValue, oldValue string) string {
	if newValue == Unchanged {
		return oldValue
	}
	return newValue
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return Unchanged
}

// Redacted returns n with its credentials replaced by Unchanged.
func (n Notification) Redacted() Notification {
	n = n.clone()
	n.User = redact(n.User)
	n.Password = redact(n.Password)
	n.ProxyUser = redact(n.ProxyUser)
	n.ProxyPassword = redact(n.ProxyPassword)
	if n.OAuth2 != nil {
		n.OAuth2.ClientSecret = redact(n.OAuth2.ClientSecret)
	}
	return n
}

// Redacted returns d with the key store password replaced by Unchanged.
func (d Data) Redacted() Data {
	d.KeyStorePassword = redact(d.KeyStorePassword)
	return d
}

// Redacted returns a copy of s safe to hand out.
func (s *Settings) Redacted() *Settings {
	cp := s.Clone()
	cp.Data = cp.Data.Redacted()
	for i := range cp.Notifications {
		cp.Notifications[i] = cp.Notifications[i].Redacted()
	}
	return cp
}

// mergeSecrets resolves Unchanged in n against the stored notification.
// Without a stored notification the sentinel resolves to empty.
func (n Notification) mergeSecrets(old *Notification) Notification {
	var prev Notification
	if old != nil {
		prev = *old
	}
	n.User = keepIfUnchanged(n.User, prev.User)
	n.Password = keepIfUnchanged(n.Password, prev.Password)
	n.ProxyUser = keepIfUnchanged(n.ProxyUser, prev.ProxyUser)
	n.ProxyPassword = keepIfUnchanged(n.ProxyPassword, prev.ProxyPassword)
	if n.OAuth2 != nil {
		o := *n.OAuth2
		var prevSecret string
		if prev.OAuth2 != nil {
			prevSecret = prev.OAuth2.ClientSecret
		}
		o.ClientSecret = keepIfUnchanged(o.ClientSecret, prevSecret)
		n.OAuth2 = &o
	}
	return n
}

func (d Data) mergeSecrets(old Data) Data {
	d.KeyStorePassword = keepIfUnchanged(d.KeyStorePassword, old.KeyStorePassword)
	return d
}
