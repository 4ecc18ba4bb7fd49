package rewrite

import (
	"log/slog"
	"unicode/utf8"

	"github.com/rusackas/haas-addon/internal/codec"
)

// BodyRewriter runs the full body pipeline: decompress, rewrite the text
// with the rule set for the content kind, recompress with the original
// encoding.
type BodyRewriter struct {
	rules    *RuleSet
	injector *Injector
}

func NewBodyRewriter(rules *RuleSet, injector *Injector) *BodyRewriter {
	return &BodyRewriter{rules: rules, injector: injector}
}

// Rewrite transforms raw and returns the bytes to serve. It never fails: any
// decode, text, or encode error is logged and the untouched pre-rewrite
// snapshot is returned, trading unrewritten links for availability. The
// fallback is always the original raw bytes, never a partially mutated body.
func (b *BodyRewriter) Rewrite(raw []byte, kind ContentKind, enc codec.Encoding, p Prefixer) []byte {
	if !kind.Rewritable() || !p.Active() {
		return raw
	}

	decoded, err := codec.Decode(raw, enc)
	if err != nil {
		slog.Error("decompress failed, serving original body",
			slog.String("encoding", string(enc)), slog.Any("error", err))
		return raw
	}
	if !utf8.Valid(decoded) {
		slog.Error("body is not valid UTF-8, serving original body",
			slog.String("kind", kind.String()))
		return raw
	}

	text := string(decoded)
	if kind == KindHTML && b.injector != nil {
		text = b.injector.Inject(text, p)
	}
	for _, rule := range b.rules.ForKind(kind) {
		text = rule.Apply(text, p)
	}

	out, err := codec.Encode([]byte(text), enc)
	if err != nil {
		slog.Error("recompress failed, serving original body",
			slog.String("encoding", string(enc)), slog.Any("error", err))
		return raw
	}
	return out
}
