package orchestrator

import (
	"errors"

	"github.com/auracore/styleforge/internal/generator"
)

// userSafeMessages maps each provider error kind to the message shown to
// the caller instead of the raw provider error text.
var userSafeMessages = map[generator.ErrorKind]string{
	generator.ErrorKindRateLimited:         "The image generator is busy right now. Please try again in a moment.",
	generator.ErrorKindInvalidInput:        "This request couldn't be processed. Please try a different prompt.",
	generator.ErrorKindProviderUnavailable: "The image generator is temporarily unavailable. Please try again shortly.",
	generator.ErrorKindQuotaExceeded:       "Generation quota has been reached for now.",
	generator.ErrorKindUnknown:             "Something went wrong generating your image. Please try again.",
}

// SafeError wraps a provider failure with a user-facing message, while
// still exposing the underlying error via Unwrap for logging.
type SafeError struct {
	Kind    generator.ErrorKind
	Message string
	cause   error
}

func (e *SafeError) Error() string { return e.Message }
func (e *SafeError) Unwrap() error { return e.cause }

// UserSafeError maps err to a SafeError when it is a *generator.ProviderError,
// otherwise returns a generic SafeError so no raw adapter/internal error
// text ever reaches a caller-facing surface.
func UserSafeError(err error) error {
	var providerErr *generator.ProviderError
	if errors.As(err, &providerErr) {
		message, ok := userSafeMessages[providerErr.Kind]
		if !ok {
			message = userSafeMessages[generator.ErrorKindUnknown]
		}

		return &SafeError{Kind: providerErr.Kind, Message: message, cause: err}
	}

	return &SafeError{Kind: generator.ErrorKindUnknown, Message: userSafeMessages[generator.ErrorKindUnknown], cause: err}
}
