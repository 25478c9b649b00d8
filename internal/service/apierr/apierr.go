// Package apierr classifies failures from hosted AI and storage services
// into a small set of kinds callers can branch on.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// Error kinds
var (
	ErrNetwork          = errors.New("network failure")
	ErrAuth             = errors.New("authentication failure")
	ErrQuota            = errors.New("quota or rate limit exceeded")
	ErrContentPolicy    = errors.New("rejected by content policy")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrProvider         = errors.New("provider error")
	ErrCancelled        = errors.New("request cancelled")
)

// Error carries the kind of a provider failure together with the original error
type Error struct {
	Kind     error
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the wrapped cause to errors.Is/As
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StatusCoder is implemented by provider SDK errors that expose an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// New wraps err with an explicit kind
func New(provider string, kind, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// FromStatus wraps err with the kind implied by an HTTP status code and message
func FromStatus(provider string, code int, message string, err error) *Error {
	return &Error{Kind: kindFromStatus(code, message), Provider: provider, Err: err}
}

// Classify wraps err with the kind inferred from its concrete type.
// It returns nil for a nil error and leaves already classified errors alone.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindOf(err), Provider: provider, Err: err}
}

// KindOf infers the kind of err
func KindOf(err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return kindFromStatus(code, apiErr.Error())
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return kindFromGRPC(st.Code(), st.Message())
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return kindFromStatus(gErr.Code, gErr.Message)
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return kindFromStatus(sc.HTTPStatus(), err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrNetwork
	}

	return ErrProvider
}

// IsKind reports whether err is of any of the given kinds
func IsKind(err error, kinds ...error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

func kindFromStatus(code int, message string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuth
	case code == http.StatusTooManyRequests:
		return ErrQuota
	case code == http.StatusNotFound:
		return ErrModelUnavailable
	case code == http.StatusBadRequest && mentionsPolicy(message):
		return ErrContentPolicy
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrNetwork
	default:
		return ErrProvider
	}
}

func kindFromGRPC(code codes.Code, message string) error {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrAuth
	case codes.ResourceExhausted:
		return ErrQuota
	case codes.NotFound:
		return ErrModelUnavailable
	case codes.DeadlineExceeded:
		return ErrNetwork
	case codes.InvalidArgument, codes.FailedPrecondition:
		if mentionsPolicy(message) {
			return ErrContentPolicy
		}
		return ErrProvider
	default:
		return ErrProvider
	}
}

func mentionsPolicy(message string) bool {
	m := strings.ToLower(message)
	for _, word := range []string{"safety", "blocked", "policy", "responsible ai", "prohibited"} {
		if strings.Contains(m, word) {
			return true
		}
	}
	return false
}

// KindName returns a short machine readable name for the kind of err
func KindName(err error) string {
	switch KindOf(err) {
	case ErrNetwork:
		return "network"
	case ErrAuth:
		return "auth"
	case ErrQuota:
		return "quota"
	case ErrContentPolicy:
		return "content_policy"
	case ErrModelUnavailable:
		return "model_unavailable"
	case ErrCancelled:
		return "cancelled"
	default:
		return "provider"
	}
}
