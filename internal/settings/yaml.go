package settings

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a settings document. Missing lists decode as empty.
func DecodeYAML(r io.Reader) (*Settings, error) {
	st := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(st); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
	}
	if st.Notifications == nil {
		st.Notifications = []Notification{}
	}
	if st.Buttons == nil {
		st.Buttons = []Button{}
	}
	return st, nil
}

// EncodeYAML writes st as YAML.
func EncodeYAML(w io.Writer, st *Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("failed to write settings yaml: %w", err)
	}
	return enc.Close()
}

// ImportYAML replaces the stored settings with the document read from r.
func (s *Service) ImportYAML(ctx context.Context, r io.Reader) error {
	st, err := DecodeYAML(r)
	if err != nil {
		return err
	}
	return s.Replace(ctx, st)
}

// ImportFile is ImportYAML for a file path.
func (s *Service) ImportFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return s.ImportYAML(ctx, f)
}

// ExportYAML writes the stored settings. Credentials are replaced by
// Unchanged unless withSecrets is set; a redacted export imports back
// without touching stored credentials.
func (s *Service) ExportYAML(ctx context.Context, w io.Writer, withSecrets bool) error {
	st, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	SortNotifications(st.Notifications)
	SortButtons(st.Buttons)
	if !withSecrets {
		st = st.Redacted()
	}
	return EncodeYAML(w, st)
}
