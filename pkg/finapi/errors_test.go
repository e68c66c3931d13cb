package finapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantAPI      bool
		wantMsg      string
		unauthorized bool
		notFound     bool
	}{
		{
			name:         "unauthenticated",
			err:          status.Error(codes.Unauthenticated, "invalid token"),
			wantAPI:      true,
			wantMsg:      "API error (Unauthenticated): invalid token",
			unauthorized: true,
		},
		{
			name:     "not found",
			err:      status.Error(codes.NotFound, "unknown symbol"),
			wantAPI:  true,
			wantMsg:  "API error (NotFound): unknown symbol",
			notFound: true,
		},
		{
			name:    "empty message",
			err:     status.Error(codes.Unavailable, ""),
			wantAPI: true,
			wantMsg: "API error (Unavailable)",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			wantMsg: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.wantMsg, got.Error())

			var apiErr *APIError
			assert.Equal(t, tt.wantAPI, errors.As(got, &apiErr))
			if tt.wantAPI {
				assert.Equal(t, tt.unauthorized, apiErr.IsUnauthorized())
				assert.Equal(t, tt.notFound, apiErr.IsNotFound())
			}
			assert.Equal(t, tt.unauthorized, IsUnauthorized(fmt.Errorf("wrapped: %w", got)))
		})
	}

	assert.NoError(t, FromError(nil))
}
