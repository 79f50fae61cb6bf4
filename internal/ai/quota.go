package ai

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// DefaultRetryAfter is used when the backend gives no retry hint.
const DefaultRetryAfter = 20 * time.Second

var (
	rateLimitPattern = regexp.MustCompile(`(?i)\b429\b|too many requests|quota`)
	retryInPattern   = regexp.MustCompile(`(?i)retry in\s+([\d.]+)s`)
)

// IsRateLimited reports whether err means the backend refused the call for
// quota reasons, or the breaker is shedding load.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if apiErr, ok := asAPIError(err); ok && apiErr.Code == 429 {
		return true
	}
	return rateLimitPattern.MatchString(err.Error())
}

// RetryAfter extracts the retry delay from a rate-limit error. It prefers the
// structured RetryInfo detail, then a "retry in 12.3s" hint in the message,
// rounding up, and falls back to DefaultRetryAfter.
func RetryAfter(err error) time.Duration {
	if err == nil {
		return DefaultRetryAfter
	}
	if apiErr, ok := asAPIError(err); ok {
		for _, d := range apiErr.Details {
			kind, _ := d["@type"].(string)
			if !strings.Contains(strings.ToLower(kind), "retryinfo") {
				continue
			}
			delay, _ := d["retryDelay"].(string)
			if v, err := time.ParseDuration(delay); err == nil && v > 0 {
				return ceilSeconds(v)
			}
		}
	}
	if m := retryInPattern.FindStringSubmatch(err.Error()); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil && f > 0 {
			return ceilSeconds(time.Duration(f * float64(time.Second)))
		}
	}
	return DefaultRetryAfter
}

func ceilSeconds(d time.Duration) time.Duration {
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}
