// Package proxy is the backend adapter: a reverse proxy to the single,
// already-routed upstream application this daemon fronts.
package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// New returns a handler proxying every request to target. The mount prefix
// from prefixHeader is forwarded upstream as X-Forwarded-Prefix and
// X-Script-Name so a backend that understands a mounted-at concept generates
// correct URLs itself; the rewriting pipeline covers everything it does not.
func New(target *url.URL, prefixHeader string) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
			pr.SetXForwarded()
			if prefix := strings.TrimRight(pr.In.Header.Get(prefixHeader), "/"); prefix != "" {
				pr.Out.Header.Set("X-Forwarded-Prefix", prefix)
				pr.Out.Header.Set("X-Script-Name", prefix)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("upstream request failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
}
