// Package ingress hosts the per-request rewriting pipeline: mount-prefix
// resolution, response classification, redirect fix-up, and the coordinating
// middleware. All state lives per request; nothing is shared across
// concurrent requests except the immutable rule set.
package ingress

import (
	"net/http"
	"strings"
)

// DefaultPrefixHeader is the header the ingress proxy uses to announce the
// externally visible mount prefix.
const DefaultPrefixHeader = "X-Ingress-Path"

// Context is the per-request rewriting context. An empty MountPrefix
// disables rewriting entirely for the request.
type Context struct {
	MountPrefix string
	RequestPath string
}

// Resolve reads the mount-prefix header and canonicalizes it: trailing
// slashes are stripped, any other value is accepted verbatim. An absent or
// empty header yields an inactive context.
func Resolve(r *http.Request, headerName string) Context {
	if headerName == "" {
		headerName = DefaultPrefixHeader
	}
	return Context{
		MountPrefix: strings.TrimRight(r.Header.Get(headerName), "/"),
		RequestPath: r.URL.Path,
	}
}

func (c Context) Active() bool {
	return c.MountPrefix != ""
}
