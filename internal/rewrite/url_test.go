package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixerCanonicalizes(t *testing.T) {
	assert.Equal(t, "/gw1", NewPrefixer("/gw1/").Prefix())
	assert.Equal(t, "/gw1", NewPrefixer("/gw1").Prefix())
	assert.False(t, NewPrefixer("/").Active())
	assert.False(t, NewPrefixer("").Active())
}

func TestRewritable(t *testing.T) {
	p := NewPrefixer("/hassio_ingress/abc123")

	tests := []struct {
		url  string
		want bool
	}{
		{"/static/x.png", true},
		{"/login", true},
		{"/", true},
		{"//cdn.example.com/x.js", false},
		{"https://example.com/a", false},
		{"http://example.com/a", false},
		{"relative/path", false},
		{"/hassio_ingress/abc123/static/x.png", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Rewritable(tt.url))
		})
	}
}

func TestRewriteIdempotent(t *testing.T) {
	p := NewPrefixer("/gw1")
	once := p.Rewrite("/login")
	assert.Equal(t, "/gw1/login", once)
	assert.Equal(t, once, p.Rewrite(once))
}

func TestInactivePrefixerRewritesNothing(t *testing.T) {
	p := NewPrefixer("")
	assert.Equal(t, "/static/x.png", p.Rewrite("/static/x.png"))
	assert.False(t, p.Rewritable("/static/x.png"))
}
