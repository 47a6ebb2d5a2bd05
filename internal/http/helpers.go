package http

import (
	"net/http"
	"strconv"
	"strings"

	"payoff/internal/core"
	"payoff/internal/services"
)

// runOptionsFromQuery reads rounding and allow_negative_amortization from
// the query string. Unparseable values are ignored.
func runOptionsFromQuery(r *http.Request) services.RunOptions {
	q := r.URL.Query()
	var ro services.RunOptions
	if v := strings.TrimSpace(q.Get("rounding")); v != "" {
		if p, err := core.ParseRoundingPolicy(v); err == nil {
			ro.Rounding = p
		}
	}
	if v := strings.TrimSpace(q.Get("allow_negative_amortization")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			ro.AllowNegativeAmortization = b
		}
	}
	return ro
}

// sanitizeTitle strips control characters from a user-supplied export title.
func sanitizeTitle(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
