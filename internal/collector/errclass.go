package collector

import (
	"context"
	"errors"
	"net/http"

	"github.com/merakitools/dashboard-exporter/internal/dashapi"
	"github.com/merakitools/dashboard-exporter/internal/metricstore"
)

// Category is the fixed failure taxonomy used for error counters.
type Category string

const (
	CategoryRateLimit    Category = "rate_limit"
	CategoryClientError  Category = "client_error"
	CategoryNotAvailable Category = "not_available"
	CategoryServerError  Category = "server_error"
	CategoryTimeout      Category = "timeout"
	CategoryValidation   Category = "validation"
	CategoryUnknown      Category = "unknown"
)

// Classify maps a raised failure into the taxonomy. NotAvailable means the
// feature does not exist for the requested resource and is handled as "zero
// data" by collectors; everything else counts against collector health.
func Classify(err error) Category {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, metricstore.ErrLabelCardinality) || errors.Is(err, dashapi.ErrDecode) {
		return CategoryValidation
	}
	var apiErr *dashapi.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return CategoryRateLimit
		case apiErr.NotAvailable():
			return CategoryNotAvailable
		case apiErr.StatusCode >= 500:
			return CategoryServerError
		case apiErr.StatusCode >= 400:
			return CategoryClientError
		}
	}
	return CategoryUnknown
}

// IsNotAvailable reports whether the error only means the queried feature is
// absent on the resource, which collectors degrade to zero data.
func IsNotAvailable(err error) bool {
	return Classify(err) == CategoryNotAvailable
}
