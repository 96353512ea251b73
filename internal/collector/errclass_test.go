package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{"timeout", context.DeadlineExceeded, CategoryTimeout},
		{"wrapped timeout", fmt.Errorf("fetching: %w", context.DeadlineExceeded), CategoryTimeout},
		{"rate limit", &dashapi.APIError{StatusCode: 429}, CategoryRateLimit},
		{"not found", &dashapi.APIError{StatusCode: 404}, CategoryNotAvailable},
		{"bad request", &dashapi.APIError{StatusCode: 400}, CategoryNotAvailable},
		{"forbidden", &dashapi.APIError{StatusCode: 403}, CategoryClientError},
		{"server error", &dashapi.APIError{StatusCode: 502}, CategoryServerError},
		{"wrapped api error", fmt.Errorf("fetching: %w", &dashapi.APIError{StatusCode: 500}), CategoryServerError},
		{"decode", fmt.Errorf("%w: bad shape", dashapi.ErrDecode), CategoryValidation},
		{"label cardinality", fmt.Errorf("%w: metric x", metricstore.ErrLabelCardinality), CategoryValidation},
		{"unknown", errors.New("boom"), CategoryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestIsNotAvailable(t *testing.T) {
	assert.True(t, IsNotAvailable(&dashapi.APIError{StatusCode: 404}))
	assert.False(t, IsNotAvailable(&dashapi.APIError{StatusCode: 500}))
	assert.False(t, IsNotAvailable(errors.New("boom")))
}
