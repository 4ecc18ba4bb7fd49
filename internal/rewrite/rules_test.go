package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet(Options{})
	require.NoError(t, err)
	return rs
}

func applyKind(rs *RuleSet, kind ContentKind, text string, p Prefixer) string {
	for _, rule := range rs.ForKind(kind) {
		text = rule.Apply(text, p)
	}
	return text
}

func TestAttributeRewrite(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/hassio_ingress/abc123")

	out := applyKind(rs, KindHTML, `<img src="/static/x.png">`, p)
	assert.Contains(t, out, `src="/hassio_ingress/abc123/static/x.png"`)
}

func TestAttributeRewriteSingleQuoted(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<a href='/login'>go</a>`, p)
	assert.Contains(t, out, `href='/gw1/login'`)
}

func TestAttributeLeavesExternalURLs(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	in := `<script src="https://cdn.example.com/x.js"></script><img src="//cdn.example.com/y.png">`
	assert.Equal(t, in, applyKind(rs, KindHTML, in, p))
}

func TestCSSURLRewrite(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<style>body { background: url(/static/bg.png); }</style>`, p)
	assert.Contains(t, out, `url("/gw1/static/bg.png")`)

	out = applyKind(rs, KindHTML, `<div style="background:url('/static/a.png')">`, p)
	assert.Contains(t, out, `url("/gw1/static/a.png")`)
}

func TestSrcsetRewrite(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<img srcset="/img/a.png 1x, /img/b.png 2x">`, p)
	assert.Contains(t, out, `srcset="/gw1/img/a.png 1x, /gw1/img/b.png 2x"`)
}

func TestSrcsetLeavesExternalEntries(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<img srcset="//cdn.example.com/a.png 1x, /img/b.png 2x">`, p)
	assert.Contains(t, out, `srcset="//cdn.example.com/a.png 1x, /gw1/img/b.png 2x"`)
}

func TestMetaRefreshRewrite(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<meta http-equiv="refresh" content="0;url=/login">`, p)
	assert.Contains(t, out, `content="0;url=/gw1/login"`)
}

func TestScriptLiteralAllowList(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	in := `fetch("/api/v1/chart/data"); var other = "/not-an-app-path";`
	out := applyKind(rs, KindScript, in, p)
	assert.Contains(t, out, `"/gw1/api/v1/chart/data"`)
	// non allow-listed absolute-looking strings stay untouched
	assert.Contains(t, out, `"/not-an-app-path"`)
}

func TestScriptLiteralBarePrefix(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindScript, `window.location = '/login';`, p)
	assert.Contains(t, out, `'/gw1/login'`)

	// "/loginfoo" is not the login prefix, only "/login" or "/login/..." are
	in := `var x = '/loginfoo';`
	assert.Equal(t, in, applyKind(rs, KindScript, in, p))
}

func TestJSONFieldRewrite(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<script>var bootstrap = {"url":"/superset/welcome/"};</script>`, p)
	assert.Contains(t, out, `"url":"/gw1/superset/welcome/"`)
}

func TestRulesIdempotent(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	in := `<img src="/static/x.png" srcset="/img/a.png 1x"><script>fetch("/api/x")</script>`
	once := applyKind(rs, KindHTML, in, p)
	twice := applyKind(rs, KindHTML, once, p)
	assert.Equal(t, once, twice)
}

func TestScriptKindSkipsMarkupRules(t *testing.T) {
	rs := newTestRuleSet(t)
	p := NewPrefixer("/gw1")

	// srcset is a markup rule; a script body containing this text must not
	// be treated as markup.
	in := `var s = 'srcset="/img/a.png 1x"';`
	out := applyKind(rs, KindScript, in, p)
	assert.Equal(t, in, out)
}

func TestConfigurableVocabulary(t *testing.T) {
	rs, err := NewRuleSet(Options{
		Attributes:   []string{"href"},
		PathPrefixes: []string{"app"},
		JSONFields:   []string{"endpoint"},
	})
	require.NoError(t, err)
	p := NewPrefixer("/gw1")

	out := applyKind(rs, KindHTML, `<a href="/x"><img src="/static/y.png">`, p)
	assert.Contains(t, out, `href="/gw1/x"`)
	assert.Contains(t, out, `src="/static/y.png"`)

	out = applyKind(rs, KindScript, `load("/app/data"); load("/api/data");`, p)
	assert.Contains(t, out, `"/gw1/app/data"`)
	assert.Contains(t, out, `"/api/data"`)
}

func TestForKindStrategyTable(t *testing.T) {
	rs := newTestRuleSet(t)
	assert.Len(t, rs.ForKind(KindHTML), 8)
	assert.Len(t, rs.ForKind(KindScript), 2)
	assert.Nil(t, rs.ForKind(KindOther))
	assert.Equal(t, []string{"script-literal-double-quoted", "script-literal-single-quoted"}, rs.Names(KindScript))
}
