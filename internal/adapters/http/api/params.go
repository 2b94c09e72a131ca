package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// requiredString returns a non-blank query parameter.
func requiredString(q url.Values, name string) (string, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return "", fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}
	return v, nil
}

// optionalFloat parses a finite float query parameter, returning def when
// it is absent.
func optionalFloat(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, name, raw)
	}
	return v, nil
}
