package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("search: %w", NewError(KindTrackerUnavailable, "mteam", cause))

	assert.True(t, errors.Is(err, ErrTrackerUnavailable))
	assert.False(t, errors.Is(err, ErrInputInvalid))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindTrackerUnavailable, KindOf(err))
	assert.Equal(t, "TRACKER_UNAVAILABLE: mteam: connection refused", errors.Unwrap(err).Error())
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"input", NewError(KindInputInvalid, "", nil), codes.InvalidArgument},
		{"tracker", NewError(KindTrackerUnavailable, "", nil), codes.Unavailable},
		{"stale", NewError(KindSessionStale, "", nil), codes.FailedPrecondition},
		{"too large", NewError(KindMessageTooLarge, "", nil), codes.ResourceExhausted},
		{"downloader", NewError(KindDownloaderFailure, "", nil), codes.Unavailable},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
