package api

import (
	"net/url"
	"strconv"
)

// parseOffsetLimit reads limit and offset from query params. Absent values
// take the defaults; anything that is not a non-negative integer is an error.
// Clamping to the maximum is left to the service.
func parseOffsetLimit(q url.Values, defaultLimit int) (limit, offset int, ok bool) {
	limit, ok = nonNegative(q.Get("limit"), defaultLimit)
	if !ok {
		return 0, 0, false
	}
	offset, ok = nonNegative(q.Get("offset"), 0)
	if !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

func nonNegative(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
