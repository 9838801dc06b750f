package genclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elee1766/aisummary/src/aisdk"
)

// Kind classifies a failed generation call.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthInvalid
	KindRateLimited
	KindTimeout
	KindServerError
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindAuthInvalid:
		return "auth_invalid"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindServerError:
		return "server_error"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// Sentinels matched by ClassifiedError.Is, one per kind.
var (
	// ErrAuthInvalid indicates the API key was rejected
	ErrAuthInvalid = errors.New("API key is invalid")

	// ErrRateLimited indicates rate limiting
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates the call exceeded its time budget
	ErrTimeout = errors.New("operation timed out")

	// ErrServerError indicates the service failed internally
	ErrServerError = errors.New("AI service internal error")

	// ErrEmptyResponse indicates the API returned an empty response
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrUnknown covers everything else
	ErrUnknown = errors.New("unknown error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthInvalid:
		return ErrAuthInvalid
	case KindRateLimited:
		return ErrRateLimited
	case KindTimeout:
		return ErrTimeout
	case KindServerError:
		return ErrServerError
	case KindEmptyResponse:
		return ErrEmptyResponse
	default:
		return ErrUnknown
	}
}

// ClassifiedError is the only error type returned by Client.Generate. It
// carries the message text of the underlying failure but not the failure
// itself.
type ClassifiedError struct {
	Kind       Kind
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("AI service error %d (%s): %s", e.StatusCode, e.Kind, msg)
	}
	return fmt.Sprintf("AI service error (%s): %s", e.Kind, msg)
}

// Is implements error matching against the kind sentinels.
func (e *ClassifiedError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// IsRetryable returns true if re-invoking the call may succeed.
func (e *ClassifiedError) IsRetryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServerError, KindTimeout:
		return true
	}
	return false
}

// Classify maps a transport failure or an HTTP error response to a
// ClassifiedError. resp may be nil when err is set; body is the already read
// response body.
func Classify(resp *http.Response, body []byte, err error) *ClassifiedError {
	if err != nil {
		return classifyTransport(err)
	}
	if resp == nil {
		return &ClassifiedError{Kind: KindUnknown, Message: "no response"}
	}

	ce := &ClassifiedError{StatusCode: resp.StatusCode}

	var errResp aisdk.ErrorResponse
	serverMsg := ""
	serverType := ""
	if len(body) > 0 {
		if jerr := json.Unmarshal(body, &errResp); jerr == nil {
			serverMsg = errResp.Error.Message
			serverType = errResp.Error.Type
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		ce.Kind = KindAuthInvalid
	case resp.StatusCode == http.StatusTooManyRequests:
		ce.Kind = KindRateLimited
		ce.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500 || serverType == "server_error":
		ce.Kind = KindServerError
	default:
		ce.Kind = KindUnknown
	}

	switch {
	case serverMsg != "":
		ce.Message = serverMsg
	case len(body) > 0 && ce.Kind == KindUnknown:
		ce.Message = strings.TrimSpace(string(body))
	default:
		ce.Message = http.StatusText(resp.StatusCode)
	}
	return ce
}

func classifyTransport(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Kind: KindTimeout, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClassifiedError{Kind: KindTimeout, Message: err.Error()}
	}
	return &ClassifiedError{Kind: KindUnknown, Message: err.Error()}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// RetryDelay returns how long a caller should wait before re-invoking after
// err on the given attempt (1-based).
func RetryDelay(err error, attempt int) time.Duration {
	var ce *ClassifiedError
	if errors.As(err, &ce) && ce.RetryAfter > 0 {
		return ce.RetryAfter
	}
	if attempt < 1 {
		attempt = 1
	}

	// attempt 1: 1s, attempt 2: 2s, attempt 3: 4s, etc.
	delay := time.Second * time.Duration(1<<uint(attempt-1))
	maxDelay := time.Minute
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// ErrorHandler provides centralized error handling with logging.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger: logger.With("component", "error_handler"),
	}
}

// Handle logs err at a level that depends on its kind and returns it.
func (eh *ErrorHandler) Handle(err error, operation string, attrs ...any) error {
	if err == nil {
		return nil
	}

	logAttrs := append([]any{"operation", operation, "error", err.Error()}, attrs...)

	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		eh.logger.Error("error occurred", logAttrs...)
		return err
	}

	logAttrs = append(logAttrs, "kind", ce.Kind.String())
	switch ce.Kind {
	case KindRateLimited:
		eh.logger.Warn("rate limited", logAttrs...)
	case KindAuthInvalid:
		eh.logger.Error("authentication failed", logAttrs...)
	case KindTimeout:
		eh.logger.Warn("request timed out", logAttrs...)
	case KindServerError:
		eh.logger.Warn("AI service error", logAttrs...)
	case KindEmptyResponse:
		eh.logger.Warn("empty response", logAttrs...)
	default:
		eh.logger.Error("API error", logAttrs...)
	}
	return err
}
