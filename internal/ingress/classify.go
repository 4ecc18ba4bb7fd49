package ingress

import (
	"net/http"
	"strings"

	"github.com/rusackas/haas-addon/internal/codec"
	"github.com/rusackas/haas-addon/internal/rewrite"
)

// Envelope is the classification of a response, decided from its headers
// before the first body byte is forwarded. It is an explicit value handed
// between pipeline stages; no stage keeps classification state of its own.
type Envelope struct {
	Kind     rewrite.ContentKind
	Encoding codec.Encoding

	// Buffer is true when the body must be collected in full and rewritten
	// before anything reaches the client. False means stream through.
	Buffer bool
}

// Classify inspects the headers the backend intends to send. HTML and
// script bodies are buffered for rewriting when a prefix is active, unless
// they carry a content-encoding this pipeline cannot transcode; rewriting
// opaque bytes blind would corrupt them.
func Classify(h http.Header, prefixActive bool) Envelope {
	ct := strings.ToLower(h.Get("Content-Type"))
	kind := rewrite.KindOther
	switch {
	case strings.Contains(ct, "text/html"):
		kind = rewrite.KindHTML
	case strings.Contains(ct, "javascript"):
		kind = rewrite.KindScript
	}

	enc := codec.Parse(h.Get("Content-Encoding"))

	return Envelope{
		Kind:     kind,
		Encoding: enc,
		Buffer:   prefixActive && kind.Rewritable() && enc.Transcodable(),
	}
}
