package ingress

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rusackas/haas-addon/internal/rewrite"
	"github.com/rusackas/haas-addon/internal/stats"
)

// healthPath is exempt from per-request pipeline logging so liveness probes
// do not flood the log. It receives identical rewriting behavior otherwise.
const healthPath = "/health"

// Middleware coordinates the rewriting pipeline around a backend handler.
// Requests without a mount prefix bypass it entirely, so their responses
// stay byte-identical to the backend's output.
type Middleware struct {
	next         http.Handler
	body         *rewrite.BodyRewriter
	prefixHeader string
	recorder     *stats.Recorder
}

func NewMiddleware(next http.Handler, body *rewrite.BodyRewriter, prefixHeader string, recorder *stats.Recorder) *Middleware {
	return &Middleware{
		next:         next,
		body:         body,
		prefixHeader: prefixHeader,
		recorder:     recorder,
	}
}

func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := Resolve(r, m.prefixHeader)
	quiet := ctx.RequestPath == healthPath

	if !ctx.Active() {
		m.next.ServeHTTP(w, r)
		return
	}

	if !quiet {
		slog.Debug("ingress request",
			slog.String("path", ctx.RequestPath),
			slog.String("prefix", ctx.MountPrefix))
	}

	iw := &interceptWriter{
		rw:       w,
		prefixer: rewrite.NewPrefixer(ctx.MountPrefix),
		path:     ctx.RequestPath,
		quiet:    quiet,
	}
	m.next.ServeHTTP(iw, r)
	iw.finish(m.body, m.recorder)
}

// interceptWriter observes the backend's header emission, classifies the
// response, and either streams the body through or collects it for
// rewriting. The buffer-vs-stream decision is made exactly once, before any
// body byte is forwarded, and cannot be reversed.
type interceptWriter struct {
	rw       http.ResponseWriter
	prefixer rewrite.Prefixer
	path     string
	quiet    bool

	envelope    Envelope
	status      int
	wroteHeader bool
	buffering   bool
	buf         bytes.Buffer
}

func (w *interceptWriter) Header() http.Header {
	return w.rw.Header()
}

func (w *interceptWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code

	h := w.rw.Header()
	if loc, changed := RewriteLocation(h, w.prefixer); changed && !w.quiet {
		slog.Debug("rewrote redirect", slog.String("location", loc))
	}

	w.envelope = Classify(h, true)
	if !w.quiet {
		slog.Debug("ingress response",
			slog.String("path", w.path),
			slog.Int("status", code),
			slog.String("kind", w.envelope.Kind.String()),
			slog.String("encoding", string(w.envelope.Encoding)))
	}

	if w.envelope.Buffer {
		// Content-Length is recomputed after rewriting; header emission is
		// deferred until the final body is known.
		h.Del("Content-Length")
		w.buffering = true
		return
	}
	w.rw.WriteHeader(code)
}

func (w *interceptWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.buffering {
		return w.buf.Write(b)
	}
	return w.rw.Write(b)
}

// Flush forwards to the underlying writer only while streaming; a buffered
// response has nothing to flush until it is finished.
func (w *interceptWriter) Flush() {
	if w.buffering || !w.wroteHeader {
		return
	}
	if f, ok := w.rw.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *interceptWriter) Unwrap() http.ResponseWriter {
	return w.rw
}

// finish completes a buffered response: rewrite the collected body, attach
// the exact Content-Length, then emit the deferred status and headers.
func (w *interceptWriter) finish(body *rewrite.BodyRewriter, recorder *stats.Recorder) {
	if !w.buffering {
		if w.wroteHeader && recorder != nil {
			recorder.AddPass(&stats.PassRecord{Path: w.path, Reason: w.passReason()})
		}
		return
	}

	raw := w.buf.Bytes()
	out := body.Rewrite(raw, w.envelope.Kind, w.envelope.Encoding, w.prefixer)

	h := w.rw.Header()
	h.Set("Content-Length", strconv.Itoa(len(out)))
	w.rw.WriteHeader(w.status)
	if _, err := w.rw.Write(out); err != nil && !w.quiet {
		slog.Debug("client write failed", slog.String("path", w.path), slog.Any("error", err))
	}

	if !w.quiet {
		slog.Debug("rewrote body",
			slog.String("path", w.path),
			slog.String("kind", w.envelope.Kind.String()),
			slog.Int("original_bytes", len(raw)),
			slog.Int("rewritten_bytes", len(out)))
	}
	if recorder != nil {
		recorder.AddRewrite(&stats.RewriteRecord{
			Path:          w.path,
			Kind:          w.envelope.Kind.String(),
			Encoding:      string(w.envelope.Encoding),
			OriginalSize:  len(raw),
			RewrittenSize: len(out),
		})
	}
}

func (w *interceptWriter) passReason() string {
	if !w.envelope.Kind.Rewritable() {
		return "content kind"
	}
	if !w.envelope.Encoding.Transcodable() {
		return "unknown encoding"
	}
	return "streamed"
}
