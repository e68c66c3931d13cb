package finapi

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// APIError is a non-OK status returned by the service.
type APIError struct {
	Code    codes.Code
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%s)", e.Code)
	}
	return fmt.Sprintf("API error (%s): %s", e.Code, e.Message)
}

// IsNotFound returns true if the service did not know the requested entity.
func (e *APIError) IsNotFound() bool {
	return e.Code == codes.NotFound
}

// IsUnauthorized returns true if the session token was missing or rejected.
func (e *APIError) IsUnauthorized() bool {
	return e.Code == codes.Unauthenticated || e.Code == codes.PermissionDenied
}

// IsUnavailable returns true if the endpoint could not be reached.
func (e *APIError) IsUnavailable() bool {
	return e.Code == codes.Unavailable
}

// FromError converts a gRPC status error into an *APIError. Errors that do
// not carry a status are returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}
	return &APIError{Code: st.Code(), Message: st.Message()}
}

// IsUnauthorized reports whether err is an *APIError for a rejected session.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}
