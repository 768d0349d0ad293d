package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks a missing or malformed configuration value,
	// such as an absent API key or an unparseable slot entry. The affected
	// unit of work is skipped and retried on a later tick.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalAPI marks a failure or malformed payload from the
	// recommendation API.
	ErrExternalAPI = errors.New("external api error")
	// ErrSyncFailure marks a failed git pull or push (network, auth, or
	// merge conflict). Recovered by retrying on the next scheduled tick.
	ErrSyncFailure = errors.New("sync failure")
	// ErrNoCandidate marks the legitimate outcome of every candidate being
	// filtered out. The team stays stale and is retried next invocation.
	ErrNoCandidate = errors.New("no eligible candidate")
	// ErrTimeout marks an operation cancelled by its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSyncFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
