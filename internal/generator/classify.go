package generator

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// classifyStatus maps a generation API response to an error kind. A 429, or
// any status whose body carries a rate-limit marker, wins over the other
// status-derived kinds so that the coordinator's retry loop sees it.
func classifyStatus(status int, rawPayload string) Kind {
	if status == http.StatusTooManyRequests || isRateLimitPayload(rawPayload) {
		return KindRateLimited
	}

	switch status {
	case http.StatusUnprocessableEntity:
		return KindInvalidModel
	case http.StatusGatewayTimeout:
		return KindTimeout
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// isRateLimitPayload inspects the code, type, and error fields of a
// structured error body, at the top level and nested one level deep, for a
// rate-limit marker.
func isRateLimitPayload(rawPayload string) bool {
	rawPayload = strings.TrimSpace(rawPayload)
	if rawPayload == "" || !gjson.Valid(rawPayload) {
		return false
	}

	root := gjson.Parse(rawPayload)
	if inspectMarkerFields(root) {
		return true
	}

	for _, field := range markerFields {
		nested := root.Get(field)
		if nested.IsObject() && inspectMarkerFields(nested) {
			return true
		}
	}

	return false
}

var markerFields = []string{"code", "type", "error"}

func inspectMarkerFields(value gjson.Result) bool {
	for _, field := range markerFields {
		if isRateLimitMarker(value.Get(field)) {
			return true
		}
	}

	return false
}

func isRateLimitMarker(value gjson.Result) bool {
	if value.Type != gjson.String && value.Type != gjson.Number {
		return false
	}

	marker := strings.ToLower(strings.TrimSpace(value.String()))
	if marker == "" {
		return false
	}

	if marker == "429" {
		return true
	}

	return strings.Contains(marker, "rate_limit") ||
		strings.Contains(marker, "rate-limit") ||
		strings.Contains(marker, "rate limit") ||
		strings.Contains(marker, "too_many_requests") ||
		strings.Contains(marker, "too many requests")
}
