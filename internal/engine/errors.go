package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prime3679/bishop-bench/internal/provider"
)

// ErrorKind classifies why an execution failed.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindMissingCredential   ErrorKind = "missing_credential"
	KindUnsupportedProvider ErrorKind = "unsupported_provider"
	KindRateLimit           ErrorKind = "rate_limit"
	KindTimeout             ErrorKind = "timeout"
	KindGeneric             ErrorKind = "error"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrTimeout             = errors.New("request timed out")
)

// TimeoutError reports a request that lost the race against its timer.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request timed out after %dms", e.After.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Classify maps err to its kind and the message recorded on the result.
func Classify(err error) (ErrorKind, string) {
	switch {
	case err == nil:
		return KindNone, ""
	case errors.Is(err, provider.ErrMissingCredential):
		return KindMissingCredential, missingMessage(err)
	case errors.Is(err, ErrUnsupportedProvider):
		return KindUnsupportedProvider, "Unsupported provider: " + strings.TrimPrefix(err.Error(), ErrUnsupportedProvider.Error()+": ")
	case errors.Is(err, ErrTimeout):
		var te *TimeoutError
		if errors.As(err, &te) {
			return KindTimeout, te.Error()
		}
		return KindTimeout, err.Error()
	}
	if code, ok := provider.StatusCode(err); ok && code == http.StatusTooManyRequests {
		return KindRateLimit, "Rate limit exceeded: " + err.Error()
	}
	return KindGeneric, err.Error()
}

// missingMessage drops the sentinel prefix so the result reads "Missing X".
func missingMessage(err error) string {
	return strings.TrimPrefix(err.Error(), provider.ErrMissingCredential.Error()+": ")
}
