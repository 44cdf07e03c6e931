package common

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Masked is the replacement printed instead of a secret.
const Masked = "***MASKED***"

// MaskedHeaderValue is what gets logged for Authorization-like header values.
const MaskedHeaderValue = "**********"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "api_key")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Specific keys to mask (case-insensitive)
}

// DefaultSensitivePatterns contains common patterns for sensitive information
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)(["'\s]*[:=]["'\s]*)([^"',}\]\s&]+)`),
		Replacement: `${1}${2}` + Masked,
		Keys:        []string{"password", "passwd", "pwd", "proxy_password", "keystore_password", "client_secret"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(access[_-]?token|auth[_-]?token|token)(["'\s]*[:=]["'\s]*)([^"',}\]\s&]+)`),
		Replacement: `${1}${2}` + Masked,
		Keys:        []string{"token", "access_token", "auth_token"},
	},
	{
		Name:        "authorization",
		Keys:        []string{"authorization", "proxy-authorization"},
		Regex:       regexp.MustCompile(`(?i)(authorization)(["'\s]*[:=]["'\s]*)((?:bearer|basic)\s+)?([^"',}\]\s]+)`),
		Replacement: `${1}${2}${3}` + Masked,
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + Masked,
	},
	{
		Name:        "basic_auth",
		Regex:       regexp.MustCompile(`(?i)Basic\s+[A-Za-z0-9+/]+=*`),
		Replacement: "Basic " + Masked,
	},
	{
		Name:        "url_userinfo",
		Regex:       regexp.MustCompile(`(://[^:/@\s]+):[^@/\s]+@`),
		Replacement: "${1}:" + Masked + "@",
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return &Masker{patterns: DefaultSensitivePatterns, enabled: true}
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled
}

// AddPattern adds a new sensitive pattern. Patterns given only as keys get a
// key=value regex generated for them.
func (m *Masker) AddPattern(pattern SensitivePattern) {
	if pattern.Regex == nil && len(pattern.Keys) > 0 {
		keyPattern := strings.Join(pattern.Keys, "|")
		pattern.Regex = regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)(\s*[:=]\s*['"]?)([^'",\s}\]]+)`, keyPattern))
		if pattern.Replacement == "" {
			pattern.Replacement = "${1}${2}" + Masked
		}
	}
	m.patterns = append(m.patterns, pattern)
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.enabled {
		return input
	}
	result := input
	for _, pattern := range m.patterns {
		if pattern.Regex == nil {
			continue
		}
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// IsSensitiveKey reports whether values logged under key must never be shown.
func (m *Masker) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == sensitiveKey {
				return true
			}
		}
	}
	return false
}

// MaskValue masks sensitive information based on key-value context
func (m *Masker) MaskValue(key string, value any) any {
	if !m.enabled {
		return value
	}
	if m.IsSensitiveKey(key) {
		return Masked
	}
	if s, ok := value.(string); ok {
		return m.MaskString(s)
	}
	return value
}

// MaskHeader returns the value to log for an HTTP header. Authorization-like
// headers are always hidden, regardless of the masking toggle.
func MaskHeader(name, value string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "authorization", "proxy-authorization":
		return MaskedHeaderValue
	}
	return value
}

var globalMasker = NewMasker()

// SetGlobalMasker sets the global masker instance
func SetGlobalMasker(masker *Masker) {
	if masker != nil {
		globalMasker = masker
	}
}

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}

// IsMaskingEnabled returns whether global masking is enabled
func IsMaskingEnabled() bool {
	return globalMasker.IsEnabled()
}

// maskingHandler masks string attributes before handing records to the wrapped handler.
type maskingHandler struct {
	next slog.Handler
}

func newMaskingHandler(next slog.Handler) slog.Handler {
	return &maskingHandler{next: next}
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, r slog.Record) error {
	if !globalMasker.IsEnabled() {
		return h.next.Handle(ctx, r)
	}
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &maskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{next: h.next.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	if !globalMasker.IsEnabled() {
		return a
	}
	if globalMasker.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Masked)
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, globalMasker.MaskString(a.Value.String()))
	}
	return a
}
