package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorClass labels a failure for logs and metrics. It never changes what the
// session does: every poll failure is retried on the next tick.
type ErrorClass int

const (
	// ErrorClassRetryable marks transient failures (network, 5xx, rate limits).
	ErrorClassRetryable ErrorClass = iota
	// ErrorClassFatal marks failures a retry will not fix (bad key, quota, chat ended).
	ErrorClassFatal
	// ErrorClassUnknown is used for nil errors.
	ErrorClassUnknown
)

// String returns the metric label for the class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassRetryable:
		return "retryable"
	case ErrorClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifyError maps an API or transport error to an ErrorClass.
//
// Structured *googleapi.Error codes are preferred; anything else falls back
// to message patterns. Unrecognized errors are treated as retryable.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassRetryable
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return ErrorClassRetryable
		case gerr.Code == http.StatusBadRequest,
			gerr.Code == http.StatusUnauthorized,
			gerr.Code == http.StatusForbidden,
			gerr.Code == http.StatusNotFound:
			return ErrorClassFatal
		}
	}

	lower := strings.ToLower(err.Error())
	fatalPatterns := []string{
		"api key not valid",
		"keyinvalid",
		"quotaexceeded",
		"livechatended",
		"livechatnotfound",
		"livechatdisabled",
		"forbidden",
		"unauthorized",
	}
	for _, p := range fatalPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassFatal
		}
	}
	return ErrorClassRetryable
}
