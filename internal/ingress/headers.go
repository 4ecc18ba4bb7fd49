package ingress

import (
	"net/http"

	"github.com/rusackas/haas-addon/internal/rewrite"
)

// RewriteLocation prefixes a redirect Location that points into the backend.
// Absolute (scheme-carrying) and protocol-relative targets are left alone;
// they denote hosts this pipeline does not own. Returns the rewritten value
// and whether anything changed.
func RewriteLocation(h http.Header, p rewrite.Prefixer) (string, bool) {
	loc := h.Get("Location")
	if loc == "" || !p.Rewritable(loc) {
		return loc, false
	}
	rewritten := p.Rewrite(loc)
	h.Set("Location", rewritten)
	return rewritten, true
}
