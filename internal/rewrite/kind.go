package rewrite

// ContentKind classifies a response body for rewriting purposes. Only HTML
// and script bodies are ever rewritten; everything else streams through.
type ContentKind int

const (
	KindOther ContentKind = iota
	KindHTML
	KindScript
)

func (k ContentKind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindScript:
		return "script"
	default:
		return "other"
	}
}

// Rewritable reports whether bodies of this kind go through the rewrite
// pipeline.
func (k ContentKind) Rewritable() bool {
	return k == KindHTML || k == KindScript
}
