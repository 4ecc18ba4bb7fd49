package rewrite

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// Options carries the configurable vocabulary of the rule set. The defaults
// are the reference sets observed in the fronted application; deployments
// fronting a different backend override them in config.
type Options struct {
	// Attributes are the markup attribute names whose values get prefixed.
	Attributes []string
	// PathPrefixes is the allow-list of first path segments that identify
	// in-application URLs inside script literals and JSON fields. A blanket
	// "starts with /" match there would corrupt unrelated strings.
	PathPrefixes []string
	// JSONFields are the JSON object keys whose string values are URLs.
	JSONFields []string
}

func DefaultOptions() Options {
	return Options{
		Attributes: []string{"href", "src", "action", "data-src", "poster"},
		PathPrefixes: []string{
			"static", "api", "superset", "login", "logout", "dashboard",
			"chart", "explore", "sqllab", "tablemodelview", "databaseview",
			"savedqueryview", "favicon", "assets", "users", "roles",
			"csstemplatemodelview", "annotationlayermodelview", "welcome",
		},
		JSONFields: []string{"url", "path", "href", "src", "redirect", "next", "location"},
	}
}

// Rule is one pattern/transform pair. Rules are pure text transforms,
// order-dependent, and applied to every match in the body.
type Rule struct {
	Name string

	re   *regexp2.Regexp
	eval func(m regexp2.Match, p Prefixer) string
}

// Apply runs the rule over text, rewriting every match. A replace failure
// leaves the text unchanged.
func (r Rule) Apply(text string, p Prefixer) string {
	out, err := r.re.ReplaceFunc(text, func(m regexp2.Match) string {
		return r.eval(m, p)
	}, -1, -1)
	if err != nil {
		slog.Error("rewrite rule failed", slog.String("rule", r.Name), slog.Any("error", err))
		return text
	}
	return out
}

// RuleSet holds the ordered rule lists per content kind. It is immutable
// after construction and shared by all requests.
type RuleSet struct {
	html   []Rule
	script []Rule
}

// NewRuleSet compiles the rule table from opts. Empty option lists fall back
// to the defaults.
func NewRuleSet(opts Options) (*RuleSet, error) {
	def := DefaultOptions()
	if len(opts.Attributes) == 0 {
		opts.Attributes = def.Attributes
	}
	if len(opts.PathPrefixes) == 0 {
		opts.PathPrefixes = def.PathPrefixes
	}
	if len(opts.JSONFields) == 0 {
		opts.JSONFields = def.JSONFields
	}

	attrAlt := alternation(opts.Attributes)
	pathAlt := alternation(opts.PathPrefixes)
	fieldAlt := alternation(opts.JSONFields)

	attrDouble, err := newRule("attr-double-quoted",
		`(`+attrAlt+`)="(/[^"]*)"`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return m.GroupByNumber(1).String() + `="` + p.Rewrite(m.GroupByNumber(2).String()) + `"`
		})
	if err != nil {
		return nil, err
	}

	attrSingle, err := newRule("attr-single-quoted",
		`(`+attrAlt+`)='(/[^']*)'`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return m.GroupByNumber(1).String() + `='` + p.Rewrite(m.GroupByNumber(2).String()) + `'`
		})
	if err != nil {
		return nil, err
	}

	cssURL, err := newRule("css-url",
		`url\(['"]?(/[^)'"]+)['"]?\)`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return `url("` + p.Rewrite(m.GroupByNumber(1).String()) + `")`
		})
	if err != nil {
		return nil, err
	}

	srcset, err := newRule("srcset",
		`(srcset)="([^"]*)"`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return m.GroupByNumber(1).String() + `="` + rewriteSrcset(m.GroupByNumber(2).String(), p) + `"`
		})
	if err != nil {
		return nil, err
	}

	metaRefresh, err := newRule("meta-refresh",
		`(content="\d+;\s*url=)(/[^"]*)"`, regexp2.IgnoreCase,
		func(m regexp2.Match, p Prefixer) string {
			return m.GroupByNumber(1).String() + p.Rewrite(m.GroupByNumber(2).String()) + `"`
		})
	if err != nil {
		return nil, err
	}

	scriptDouble, err := newRule("script-literal-double-quoted",
		`"(/(?:`+pathAlt+`)(?:/[^"]*)?)"`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return `"` + p.Rewrite(m.GroupByNumber(1).String()) + `"`
		})
	if err != nil {
		return nil, err
	}

	scriptSingle, err := newRule("script-literal-single-quoted",
		`'(/(?:`+pathAlt+`)(?:/[^']*)?)'`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return `'` + p.Rewrite(m.GroupByNumber(1).String()) + `'`
		})
	if err != nil {
		return nil, err
	}

	jsonField, err := newRule("json-url-field",
		`"(`+fieldAlt+`)":\s*"(/(?:`+pathAlt+`)(?:/[^"]*)?)"`, regexp2.None,
		func(m regexp2.Match, p Prefixer) string {
			return `"` + m.GroupByNumber(1).String() + `":"` + p.Rewrite(m.GroupByNumber(2).String()) + `"`
		})
	if err != nil {
		return nil, err
	}

	return &RuleSet{
		html: []Rule{
			attrDouble, attrSingle, cssURL, srcset, metaRefresh,
			scriptDouble, scriptSingle, jsonField,
		},
		script: []Rule{scriptDouble, scriptSingle},
	}, nil
}

// ForKind is the strategy table: HTML gets the full markup rule list, script
// bodies only the literal-string rules.
func (rs *RuleSet) ForKind(kind ContentKind) []Rule {
	switch kind {
	case KindHTML:
		return rs.html
	case KindScript:
		return rs.script
	default:
		return nil
	}
}

// Names returns the ordered rule names for a kind, for the admin API.
func (rs *RuleSet) Names(kind ContentKind) []string {
	rules := rs.ForKind(kind)
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name)
	}
	return names
}

func newRule(name, pattern string, opts regexp2.RegexOptions, eval func(regexp2.Match, Prefixer) string) (Rule, error) {
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return Rule{}, fmt.Errorf("compile rule %s: %w", name, err)
	}
	return Rule{Name: name, re: re, eval: eval}, nil
}

// rewriteSrcset rewrites each URL token of a srcset value independently,
// leaving density/size descriptors verbatim.
func rewriteSrcset(value string, p Prefixer) string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			parts[i] = strings.TrimSpace(part)
			continue
		}
		fields[0] = p.Rewrite(fields[0])
		parts[i] = strings.Join(fields, " ")
	}
	return strings.Join(parts, ", ")
}

func alternation(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(tok))
	}
	return strings.Join(quoted, "|")
}
