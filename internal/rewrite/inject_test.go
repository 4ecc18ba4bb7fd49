package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectBaseTag(t *testing.T) {
	inj := NewInjector(true, false)
	p := NewPrefixer("/gw1")

	out := inj.Inject(`<html><head><title>t</title></head></html>`, p)
	assert.Contains(t, out, `<head><base href="/gw1/">`)
}

func TestInjectHeadWithAttributes(t *testing.T) {
	inj := NewInjector(true, false)
	p := NewPrefixer("/gw1")

	out := inj.Inject(`<html><head lang="en"><title>t</title></head></html>`, p)
	assert.Contains(t, out, `<head lang="en"><base href="/gw1/">`)
}

func TestInjectSkipsWhenBasePresent(t *testing.T) {
	inj := NewInjector(true, true)
	p := NewPrefixer("/gw1")

	in := `<html><head><base href="/gw1/"><title>t</title></head></html>`
	assert.Equal(t, in, inj.Inject(in, p))
}

func TestInjectClientPatch(t *testing.T) {
	inj := NewInjector(true, true)
	p := NewPrefixer("/gw1")

	out := inj.Inject(`<html><head></head></html>`, p)
	assert.Contains(t, out, `<base href="/gw1/">`)
	assert.Contains(t, out, `var MOUNT = "/gw1";`)
	assert.Contains(t, out, "window.fetch")
	assert.Contains(t, out, "XMLHttpRequest.prototype.open")
	// patch comes right after the base tag
	assert.Less(t, strings.Index(out, `<base`), strings.Index(out, `<script>`))
}

func TestInjectNoHead(t *testing.T) {
	inj := NewInjector(true, true)
	p := NewPrefixer("/gw1")

	in := `{"not":"html"}`
	assert.Equal(t, in, inj.Inject(in, p))
}

func TestInjectDisabled(t *testing.T) {
	inj := NewInjector(false, true)
	p := NewPrefixer("/gw1")

	in := `<html><head></head></html>`
	assert.Equal(t, in, inj.Inject(in, p))
}

func TestInjectSnippetCached(t *testing.T) {
	inj := NewInjector(true, true)
	p := NewPrefixer("/gw1")

	first := inj.Inject(`<html><head></head></html>`, p)
	second := inj.Inject(`<html><head></head></html>`, p)
	assert.Equal(t, first, second)
	_, ok := inj.cache.Get("/gw1")
	assert.True(t, ok)
}
