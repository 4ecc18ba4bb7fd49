package rewrite

import "strings"

// Prefixer applies a mount prefix to absolute in-application URLs. The same
// predicate backs every rewrite site (attributes, CSS, srcset, script
// literals, Location headers), which makes prefixing idempotent: a URL that
// already carries the prefix is never touched again.
type Prefixer struct {
	prefix string
}

// NewPrefixer canonicalizes the mount prefix by stripping trailing slashes.
// An empty prefix yields an inactive Prefixer that rewrites nothing.
func NewPrefixer(prefix string) Prefixer {
	return Prefixer{prefix: strings.TrimRight(prefix, "/")}
}

func (p Prefixer) Active() bool {
	return p.prefix != ""
}

func (p Prefixer) Prefix() string {
	return p.prefix
}

// Rewritable reports whether u needs the prefix: it must be an absolute
// path, not protocol-relative (// denotes another host), and not already
// prefixed.
func (p Prefixer) Rewritable(u string) bool {
	if !p.Active() {
		return false
	}
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return false
	}
	return !strings.HasPrefix(u, p.prefix)
}

// Rewrite returns u with the prefix applied, or u unchanged when it is not
// rewritable.
func (p Prefixer) Rewrite(u string) string {
	if p.Rewritable(u) {
		return p.prefix + u
	}
	return u
}
