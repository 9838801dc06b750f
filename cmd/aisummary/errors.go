package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/elee1766/aisummary/src/config"
	"github.com/elee1766/aisummary/src/genclient"
	"github.com/elee1766/aisummary/src/posts"
	"github.com/elee1766/aisummary/src/storage"
	"github.com/elee1766/aisummary/src/summary"
)

// Exit codes following standard conventions
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error
	ExitUsage       = 2 // Usage error
	ExitConfig      = 3 // Configuration error
	ExitAuth        = 4 // Authentication error
	ExitNetwork     = 6 // Network or service error
	ExitTimeout     = 7 // Timeout error
	ExitInterrupted = 8 // Interrupted by user
	ExitPartial     = 10
)

// errPartialFailure is returned by run when some posts failed
var errPartialFailure = errors.New("some posts could not be summarized")

// ErrorHandler handles different types of errors and exits with appropriate codes
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError handles an error and exits with the appropriate code
func (h *ErrorHandler) HandleError(err error) {
	if err == nil {
		return
	}

	h.logger.Debug("command failed", "error", err)
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())

	os.Exit(exitCode(err))
}

// exitCode determines the appropriate exit code for an error
func exitCode(err error) int {
	var validationErr config.ValidationError
	var fmErr *posts.FrontMatterError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &validationErr):
		return ExitConfig
	case errors.Is(err, genclient.ErrAuthInvalid):
		return ExitAuth
	case errors.Is(err, genclient.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, genclient.ErrRateLimited), errors.Is(err, genclient.ErrServerError):
		return ExitNetwork
	case errors.Is(err, genclient.ErrEmptyResponse), errors.Is(err, summary.ErrMalformedSummary):
		return ExitNetwork
	case errors.As(err, &fmErr):
		return ExitUsage
	case errors.Is(err, storage.ErrRunNotFound):
		return ExitUsage
	case errors.Is(err, errPartialFailure):
		return ExitPartial
	default:
		return ExitError
	}
}

// FatalError logs a fatal error and exits
func FatalError(logger *slog.Logger, err error) {
	NewErrorHandler(logger).HandleError(err)
}
