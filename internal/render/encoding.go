package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Encoding is the destination a resolved value is escaped for.
type Encoding string

const (
	EncodingNone Encoding = "NONE"
	EncodingURL  Encoding = "URL"
	EncodingHTML Encoding = "HTML"
	EncodingJSON Encoding = "JSON"
)

// ParseEncoding accepts the four encodings case-insensitively. Empty means NONE.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToUpper(strings.TrimSpace(s))); e {
	case "":
		return EncodingNone, nil
	case EncodingNone, EncodingURL, EncodingHTML, EncodingJSON:
		return e, nil
	default:
		return "", fmt.Errorf("unknown encoding: %q", s)
	}
}

var (
	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	lineBreak   = regexp.MustCompile(`\r\n|\n`)
)

// Encode escapes value for e.
func (e Encoding) Encode(value string) (string, error) {
	switch e {
	case EncodingNone, "":
		return value, nil
	case EncodingURL:
		return url.QueryEscape(value), nil
	case EncodingHTML:
		return lineBreak.ReplaceAllLiteralString(htmlEscaper.Replace(value), "<br />"), nil
	case EncodingJSON:
		return jsonEscape(value)
	default:
		return "", fmt.Errorf("unknown encoding: %q", string(e))
	}
}

// jsonEscape returns value as the inside of a JSON string literal.
func jsonEscape(value string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1], nil
}
