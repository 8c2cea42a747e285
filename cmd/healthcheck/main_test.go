package main

import "testing"

func TestTarget(t *testing.T) {
	tests := []struct {
		name, url, addr, want string
	}{
		{"default", "", "", "http://localhost:8080/healthz"},
		{"port only", "", ":9090", "http://localhost:9090/healthz"},
		{"host and port", "", "127.0.0.1:7000", "http://127.0.0.1:7000/healthz"},
		{"override", "http://viewer:8080/readyz", ":9090", "http://viewer:8080/readyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HEALTHCHECK_URL", tt.url)
			t.Setenv("HTTP_ADDR", tt.addr)
			if got := target(); got != tt.want {
				t.Errorf("target() = %q, want %q", got, tt.want)
			}
		})
	}
}
