package generative

import (
	"errors"
	"net/http"
	"strings"

	"github.com/productlister/lister/internal/models"
	"google.golang.org/api/googleapi"
)

var retryableMarkers = []string{
	"503",
	"429",
	"high demand",
	"overloaded",
	"temporarily unavailable",
	"rate limit",
	"resource exhausted",
	"resource_exhausted",
}

// Classify maps a provider error onto the error taxonomy. Only overload and
// rate limiting are retryable.
func Classify(err error) models.Kind {
	if err == nil {
		return ""
	}

	var classified *models.Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return models.KindRetryable
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return models.KindRetryable
		}
	}
	return models.KindFatal
}

func classify(op string, err error) *models.Error {
	var classified *models.Error
	if errors.As(err, &classified) {
		return classified
	}
	return models.NewError(Classify(err), op, err)
}
