package api

import (
	"encoding/json"
	"net/http"

	"github.com/rusackas/haas-addon/internal/rewrite"
)

func (s *APIServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version": s.version,
	})
}

func (s *APIServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.cfg)
}

func (s *APIServer) handleRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"html":          s.rules.Names(rewrite.KindHTML),
		"script":        s.rules.Names(rewrite.KindScript),
		"attributes":    s.cfg.Rewrite.Attributes,
		"path-prefixes": s.cfg.Rewrite.PathPrefixes,
		"json-fields":   s.cfg.Rewrite.JSONFields,
	})
}

func (s *APIServer) handleHTMLRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.rules.Names(rewrite.KindHTML))
}

func (s *APIServer) handleScriptRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.rules.Names(rewrite.KindScript))
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	rewrites, passes := s.recorder.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"rewrites": rewrites,
		"passes":   passes,
	})
}
