package ingress

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rusackas/haas-addon/internal/codec"
	"github.com/rusackas/haas-addon/internal/rewrite"
)

func headerWith(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		header   http.Header
		active   bool
		kind     rewrite.ContentKind
		encoding codec.Encoding
		buffer   bool
	}{
		{
			"html",
			headerWith("Content-Type", "text/html; charset=utf-8"),
			true, rewrite.KindHTML, codec.Identity, true,
		},
		{
			"html case-insensitive",
			headerWith("Content-Type", "TEXT/HTML"),
			true, rewrite.KindHTML, codec.Identity, true,
		},
		{
			"javascript",
			headerWith("Content-Type", "application/javascript"),
			true, rewrite.KindScript, codec.Identity, true,
		},
		{
			"legacy javascript type",
			headerWith("Content-Type", "text/javascript; charset=utf-8"),
			true, rewrite.KindScript, codec.Identity, true,
		},
		{
			"json streams through",
			headerWith("Content-Type", "application/json"),
			true, rewrite.KindOther, codec.Identity, false,
		},
		{
			"gzip html",
			headerWith("Content-Type", "text/html", "Content-Encoding", "gzip"),
			true, rewrite.KindHTML, codec.Gzip, true,
		},
		{
			"unknown encoding refuses to buffer",
			headerWith("Content-Type", "text/html", "Content-Encoding", "br"),
			true, rewrite.KindHTML, codec.Unknown, false,
		},
		{
			"no prefix never buffers",
			headerWith("Content-Type", "text/html"),
			false, rewrite.KindHTML, codec.Identity, false,
		},
		{
			"no content type",
			headerWith(),
			true, rewrite.KindOther, codec.Identity, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Classify(tt.header, tt.active)
			assert.Equal(t, tt.kind, env.Kind)
			assert.Equal(t, tt.encoding, env.Encoding)
			assert.Equal(t, tt.buffer, env.Buffer)
		})
	}
}
