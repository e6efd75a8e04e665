package dto

import (
	"net/http"
	"strconv"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
)

// RateLimitRejection is the throttling response for a rejected decision.
type RateLimitRejection struct {
	Status  int
	Headers map[string]string
	Body    Envelope
}

// RateLimitHeaders returns the X-RateLimit-* headers for a decision.
// Reset is expressed in epoch milliseconds.
func RateLimitHeaders(decision models.RateLimitDecision) map[string]string {
	return map[string]string{
		constants.HeaderRateLimitLimit:     strconv.FormatInt(decision.Limit, 10),
		constants.HeaderRateLimitRemaining: strconv.FormatInt(decision.Remaining, 10),
		constants.HeaderRateLimitReset:     strconv.FormatInt(decision.ResetAt.UnixMilli(), 10),
	}
}

// RateLimitExceeded builds the 429 response for decision as observed at now.
func RateLimitExceeded(decision models.RateLimitDecision, now time.Time) RateLimitRejection {
	retryAfter := decision.RetryAfter(now)

	headers := RateLimitHeaders(decision)
	headers[constants.HeaderRetryAfter] = strconv.FormatInt(retryAfter, 10)

	return RateLimitRejection{
		Status:  http.StatusTooManyRequests,
		Headers: headers,
		Body: Envelope{Error: &ErrorBody{
			Code:    errors.CodeRateLimitExceeded,
			Message: errors.ErrRateLimitExceeded.Message,
			Details: map[string]interface{}{
				"retryAfter": retryAfter,
				"resetAt":    decision.ResetAt.UnixMilli(),
			},
		}},
	}
}
