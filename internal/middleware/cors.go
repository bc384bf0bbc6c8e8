package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// OriginPolicy decides which browser origins may call the API. Entries are
// exact origins, "*", or a wildcard subdomain such as "https://*.example.com".
type OriginPolicy struct {
	any      bool
	exact    map[string]bool
	suffixes []string // scheme|.host-suffix
}

func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{exact: map[string]bool{}}
	if len(origins) == 0 {
		p.any = true
	}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "://*")
			p.suffixes = append(p.suffixes, scheme+"|"+host)
		case origin != "":
			p.exact[origin] = true
		}
	}
	return p
}

// Allows reports whether origin may make credentialed requests.
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any || p.exact[origin] {
		return true
	}
	scheme, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, s := range p.suffixes {
		wantScheme, suffix, _ := strings.Cut(s, "|")
		if scheme == wantScheme && strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// CheckOrigin is shaped for websocket.Upgrader. Non-browser clients send no
// Origin and are let through; the token still has to verify.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || p.Allows(origin)
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Content-Type", "Authorization", "Accept", OnBehalfHeader,
	}, ", ")
	corsMaxAge = strconv.Itoa(12 * 60 * 60)
)

// CORS answers preflights for allowed origins and decorates their regular
// responses. Requests from other origins pass through without CORS headers,
// so the browser blocks them.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			origin := r.Header.Get("Origin")
			if !policy.Allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "Location")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
