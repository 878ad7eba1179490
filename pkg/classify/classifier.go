// Package classify maps raw provider errors to a typed error category,
// checked in priority order: provider-specific type name, then HTTP
// status code, then message pattern. Restated here as Go error values
// (pkg/providers/errors.go) rather than string tags.
package classify

import (
	"errors"
	"strings"
	"time"
)

// Category is the error taxonomy.
type Category string

const (
	Authentication Category = "AUTHENTICATION"
	RateLimit Category = "RATE_LIMIT"
	Validation Category = "VALIDATION"
	ServerError Category = "SERVER_ERROR"
	Network Category = "NETWORK"
	Timeout Category = "TIMEOUT"
	ContentFilter Category = "CONTENT_FILTER"
	NotFound Category = "NOT_FOUND"
	PermissionDenied Category = "PERMISSION_DENIED"
	Conflict Category = "CONFLICT"
	Unknown Category = "UNKNOWN"
)

// retryable is the set from: "Retryable set: {TIMEOUT, RATE_LIMIT,
// SERVER_ERROR, NETWORK}".
var retryable = map[Category]bool{
	Timeout: true,
	RateLimit: true,
	ServerError: true,
	Network: true,
}

// defaultDelay is the per-category default suggested delay used
// when no retry_after/Retry-After is present.
var defaultDelay = map[Category]time.Duration{
	RateLimit: 60 * time.Second,
	Timeout: 5 * time.Second,
	ServerError: 10 * time.Second,
}

// Classification is the classifier's verdict for one error.
type Classification struct {
	Category Category
	IsRetryable bool
	SuggestedDelay time.Duration
	UserMessage string
}

// Classifiable lets an error opt into carrying an explicit status code,
// provider type name, and retry hint, mirroring the Python source's
// ProviderError-ish attribute probing without needing reflection.
type Classifiable interface {
	error
	StatusCode() int
	RetryAfter() time.Duration
	TypeName() string // provider-specific error type tag, e.g. "rate_limit_error"
}

// ExplicitRetryable is implemented by errors that opt in to retry
// regardless of category ("Explicit isRetryable=true... short-
// circuits the category check").
type ExplicitRetryable interface {
	IsRetryable() bool
}

// typeNamePatterns is the provider-specific type-name match (priority a).
var typeNamePatterns = map[string]Category{
	"authentication_error": Authentication,
	"invalid_api_key": Authentication,
	"permission_error": PermissionDenied,
	"not_found_error": NotFound,
	"conflict_error": Conflict,
	"rate_limit_error": RateLimit,
	"overloaded_error": ServerError,
	"api_error": ServerError,
	"timeout_error": Timeout,
	"content_filter_error": ContentFilter,
}

// messagePatterns is the message-substring match (priority c), applied
// in the fixed priority order from:
// timeout > rate_limit > authentication > content_filter > server_error > validation > network.
var messagePatternOrder = []struct {
	category Category
	patterns []string
}{
	{Timeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{RateLimit, []string{"rate limit", "too many requests", "quota exceeded"}},
	{Authentication, []string{"invalid api key", "unauthorized", "authentication"}},
	{ContentFilter, []string{"content policy", "content filter", "safety system"}},
	{ServerError, []string{"internal server error", "service unavailable", "overloaded", "bad gateway"}},
	{Validation, []string{"invalid request", "validation", "bad request"}},
	{Network, []string{"connection reset", "connection refused", "network error", "dns"}},
}

// Classify implements the priority-ordered classification algorithm:
// (a) type name, (b) status code, (c) message pattern.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Category: Unknown}
	}

	var classifiable Classifiable
	hasClassifiable := errors.As(err, &classifiable)

	// (a) provider-specific type name match.
	if hasClassifiable {
		if cat, ok := typeNamePatterns[classifiable.TypeName()]; ok {
			return finalize(cat, classifiable, err)
		}
	}

	// (b) status code match.
	if hasClassifiable && classifiable.StatusCode() != 0 {
		if cat, ok := statusCodeCategory(classifiable.StatusCode()); ok {
			return finalize(cat, classifiable, err)
		}
	}

	// (c) message-pattern match, in fixed priority order.
	msg := strings.ToLower(err.Error())
	for _, group := range messagePatternOrder {
		for _, pattern := range group.patterns {
			if strings.Contains(msg, pattern) {
				return finalize(group.category, classifiable, err)
			}
		}
	}

	return finalize(Unknown, classifiable, err)
}

// statusCodeCategory implements the status-code table:
// 401→auth, 403→perm, 404→not_found, 409→conflict, 429→rate_limit,
// 5xx→server_error, other 4xx→validation.
func statusCodeCategory(status int) (Category, bool) {
	switch status {
	case 401:
		return Authentication, true
	case 403:
		return PermissionDenied, true
	case 404:
		return NotFound, true
	case 409:
		return Conflict, true
	case 429:
		return RateLimit, true
	}
	if status >= 500 && status < 600 {
		return ServerError, true
	}
	if status >= 400 && status < 500 {
		return Validation, true
	}
	return Unknown, false
}

func finalize(cat Category, classifiable Classifiable, err error) Classification {
	isRetryable := retryable[cat]

	// Explicit opt-in short-circuits the category check.
	var explicit ExplicitRetryable
	if errors.As(err, &explicit) {
		isRetryable = explicit.IsRetryable()
	}

	delay := defaultDelay[cat]
	if classifiable != nil && classifiable.RetryAfter() > 0 {
		delay = classifiable.RetryAfter()
	}

	return Classification{
		Category: cat,
		IsRetryable: isRetryable,
		SuggestedDelay: delay,
		UserMessage: userMessage(cat),
	}
}

func userMessage(cat Category) string {
	switch cat {
	case Authentication:
		return "authentication failed; check your API key"
	case PermissionDenied:
		return "the API key does not have permission for this operation"
	case NotFound:
		return "the requested model or resource was not found"
	case Conflict:
		return "the request conflicts with existing state"
	case RateLimit:
		return "rate limit exceeded; retry after the suggested delay"
	case Timeout:
		return "the request timed out"
	case ServerError:
		return "the provider returned a server error"
	case ContentFilter:
		return "the request was blocked by the provider's content filter"
	case Validation:
		return "the request was invalid"
	case Network:
		return "a network error occurred"
	default:
		return ""
	}
}
