package invoker

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodGet, false},
		{"get", MethodGet, false},
		{" POST ", MethodPost, false},
		{"put", MethodPut, false},
		{"DELETE", MethodDelete, false},
		{"PATCH", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedMethod) {
				t.Fatalf("ParseMethod(%q) err=%v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseMethod(%q)=%q,%v", tt.in, got, err)
		}
	}
}

func TestParseHTTPVersion(t *testing.T) {
	for in, want := range map[string]HTTPVersion{
		"":         HTTP10,
		"HTTP_1_0": HTTP10,
		"HTTP_1_1": HTTP11,
		"HTTP_2":   HTTP10,
		"http_1_1": HTTP10,
	} {
		if got := ParseHTTPVersion(in); got != want {
			t.Fatalf("ParseHTTPVersion(%q)=%q want %q", in, got, want)
		}
	}
}

func TestShouldPostContent(t *testing.T) {
	tests := []struct {
		method Method
		body   string
		want   bool
	}{
		{MethodPost, "x", true},
		{MethodPut, "x", true},
		{MethodPost, "", false},
		{MethodGet, "x", false},
		{MethodDelete, "x", false},
	}
	for _, tt := range tests {
		if got := (Spec{Method: tt.method, Body: tt.body}).ShouldPostContent(); got != tt.want {
			t.Fatalf("%s body=%q got %v", tt.method, tt.body, got)
		}
	}
}

func TestRequestHeaders_BasicAuthFirst(t *testing.T) {
	s := Spec{
		User:     "user",
		Password: "pass",
		Headers:  []Header{{Name: "X-B", Value: "2"}, {Name: "X-A", Value: "1"}},
	}
	hs := s.RequestHeaders()
	if len(hs) != 3 {
		t.Fatalf("headers=%v", hs)
	}
	if hs[0].Name != "Authorization" || hs[0].Value != "Basic dXNlcjpwYXNz" {
		t.Fatalf("first header=%+v", hs[0])
	}
	if hs[1].Name != "X-B" || hs[2].Name != "X-A" {
		t.Fatalf("declared order lost: %v", hs)
	}

	if hs := (Spec{User: "user", Headers: []Header{{Name: "X", Value: "1"}}}).RequestHeaders(); len(hs) != 1 {
		t.Fatalf("basic auth needs both user and password: %v", hs)
	}
}

func TestNormalizeURL(t *testing.T) {
	u, err := NormalizeURL("http://host/path with space?q=a b")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.String() != "http://host/path%20with%20space?q=a%20b" {
		t.Fatalf("got %s", u)
	}

	for _, bad := range []string{"", "not a url", "ftp://host/x", "http://", "/relative", "http://h/%zz"} {
		if _, err := NormalizeURL(bad); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("NormalizeURL(%q) err=%v", bad, err)
		}
	}
}
