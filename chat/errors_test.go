package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorClassUnknown},
		{"deadline", context.DeadlineExceeded, ErrorClassRetryable},
		{"wrapped cancel", fmt.Errorf("fetch: %w", context.Canceled), ErrorClassRetryable},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, ErrorClassRetryable},
		{"server error", &googleapi.Error{Code: http.StatusBadGateway}, ErrorClassRetryable},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, ErrorClassFatal},
		{"forbidden wrapped", fmt.Errorf("list: %w", &googleapi.Error{Code: http.StatusForbidden}), ErrorClassFatal},
		{"chat ended text", errors.New("liveChatEnded: The live chat is no longer live."), ErrorClassFatal},
		{"invalid key text", errors.New("API key not valid. Please pass a valid API key."), ErrorClassFatal},
		{"network", errors.New("dial tcp: connection refused"), ErrorClassRetryable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorClassString(t *testing.T) {
	for class, want := range map[ErrorClass]string{
		ErrorClassRetryable: "retryable",
		ErrorClassFatal:     "fatal",
		ErrorClassUnknown:   "unknown",
	} {
		if class.String() != want {
			t.Errorf("%d.String() = %q, want %q", class, class.String(), want)
		}
	}
}
