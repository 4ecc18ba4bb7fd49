package rewrite

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// clientPatch is injected into every HTML document right after the base tag.
// It wraps the browser's URL-construction primitives so absolute paths that
// are computed at runtime (and therefore invisible to server-side text
// rewriting) still get the mount prefix applied.
const clientPatch = `<script>
(function() {
  var MOUNT = %q;
  function fix(u) {
    if (typeof u === 'string' && u.charAt(0) === '/' && u.indexOf(MOUNT) !== 0 && u.indexOf('//') !== 0) {
      return MOUNT + u;
    }
    return u;
  }
  var realFetch = window.fetch;
  window.fetch = function(input, init) {
    if (typeof input === 'string') { input = fix(input); }
    return realFetch.call(this, input, init);
  };
  var realOpen = XMLHttpRequest.prototype.open;
  XMLHttpRequest.prototype.open = function(method, url) {
    arguments[1] = fix(url);
    return realOpen.apply(this, arguments);
  };
  var RealImage = window.Image;
  window.Image = function(w, h) {
    var img = new RealImage(w, h);
    var desc = Object.getOwnPropertyDescriptor(HTMLImageElement.prototype, 'src');
    Object.defineProperty(img, 'src', {
      set: function(u) { desc.set.call(this, fix(u)); },
      get: function() { return desc.get.call(this); }
    });
    return img;
  };
})();
</script>`

// Injector inserts a <base> element and the client patch as the first
// children of <head>. The rendered snippet depends only on the mount prefix;
// prefixes are per-session tokens drawn from a bounded set, so snippets are
// cached in an expiring LRU.
type Injector struct {
	baseTag     bool
	clientPatch bool

	headWithAttrs *regexp2.Regexp
	cache         *expirable.LRU[string, string]
}

func NewInjector(baseTag, patch bool) *Injector {
	return &Injector{
		baseTag:       baseTag,
		clientPatch:   patch,
		headWithAttrs: regexp2.MustCompile(`(<head[^>]*>)`, regexp2.None),
		cache:         expirable.NewLRU[string, string](128, nil, 30*time.Minute),
	}
}

// Inject returns doc with the base tag and client patch inserted after the
// opening <head> tag. Documents that already carry the base tag, or have no
// head element at all, come back unchanged.
func (i *Injector) Inject(doc string, p Prefixer) string {
	if !i.baseTag || !p.Active() {
		return doc
	}
	if strings.Contains(doc, baseTagFor(p.Prefix())) {
		return doc
	}
	snippet := i.snippet(p.Prefix())
	if strings.Contains(doc, "<head>") {
		return strings.Replace(doc, "<head>", "<head>"+snippet, 1)
	}
	// <head> with attributes
	out, err := i.headWithAttrs.ReplaceFunc(doc, func(m regexp2.Match) string {
		return m.String() + snippet
	}, -1, 1)
	if err != nil {
		slog.Error("head tag injection failed", slog.Any("error", err))
		return doc
	}
	return out
}

func (i *Injector) snippet(prefix string) string {
	if s, ok := i.cache.Get(prefix); ok {
		return s
	}
	s := baseTagFor(prefix)
	if i.clientPatch {
		s += fmt.Sprintf(clientPatch, prefix)
	}
	i.cache.Add(prefix, s)
	return s
}

func baseTagFor(prefix string) string {
	return `<base href="` + prefix + `/">`
}
