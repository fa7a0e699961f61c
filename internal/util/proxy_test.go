package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.test:3128", "", "internal.test,.corp.test")

	tests := []struct {
		target string
		want   string
	}{
		{"http://news.example.com/a", "http://proxy.test:3128"},
		{"https://news.example.com/a", "http://proxy.test:3128"},
		{"https://internal.test/x", ""},
		{"http://api.corp.test/x", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.target, nil)
		u, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s) failed: %v", tt.target, err)
		}
		got := ""
		if u != nil {
			got = u.String()
		}
		if got != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain.test:80", "http://secure.test:443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://news.example.com/", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure.test:443" {
		t.Errorf("Expected HTTPS proxy, got %v (%v)", u, err)
	}
}
