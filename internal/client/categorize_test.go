package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kjstillabower/weather-saas/internal/apperror"
)

// TestCategorizeError verifies that CategorizeError maps errors to the correct ErrorCategory
// for metrics labeling, including upstream statuses, wrapped errors, and message-based heuristics.
func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"timeout context", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled context", context.Canceled, ErrorCategoryTimeout},
		{"upstream 401", apperror.Upstream(http.StatusUnauthorized, "bad key"), ErrorCategoryInvalidAPIKey},
		{"upstream 429", apperror.Upstream(http.StatusTooManyRequests, "slow down"), ErrorCategoryRateLimited},
		{"upstream 400", apperror.Upstream(http.StatusBadRequest, "bad location"), ErrorCategoryUpstream4xx},
		{"upstream 503", apperror.Upstream(http.StatusServiceUnavailable, "down"), ErrorCategoryUpstream5xx},
		{"wrapped upstream", fmt.Errorf("fetch: %w", apperror.Upstream(http.StatusNotFound, "x")), ErrorCategoryUpstream4xx},
		{"transport timeout", apperror.Transport(fmt.Errorf("request timeout: %w", context.DeadlineExceeded)), ErrorCategoryTimeout},
		{"network in message", errors.New("connection refused"), ErrorCategoryNetwork},
		{"parse in message", errors.New("parse response: invalid json"), ErrorCategoryParsing},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(tt.err)
			if got != tt.want {
				t.Errorf("CategorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}
