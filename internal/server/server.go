// Package server wires the rewriting middleware around the upstream proxy
// and runs the ingress listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/rusackas/haas-addon/internal/config"
	"github.com/rusackas/haas-addon/internal/ingress"
	"github.com/rusackas/haas-addon/internal/proxy"
	"github.com/rusackas/haas-addon/internal/rewrite"
	"github.com/rusackas/haas-addon/internal/stats"
)

type Server struct {
	cfg        *config.Config
	rules      *rewrite.RuleSet
	httpServer *http.Server
}

func New(cfg *config.Config, recorder *stats.Recorder) (*Server, error) {
	target, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", cfg.Upstream, err)
	}

	rules, err := rewrite.NewRuleSet(rewrite.Options{
		Attributes:   cfg.Rewrite.Attributes,
		PathPrefixes: cfg.Rewrite.PathPrefixes,
		JSONFields:   cfg.Rewrite.JSONFields,
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite.NewRuleSet: %w", err)
	}

	injector := rewrite.NewInjector(cfg.Rewrite.InjectBaseTag, cfg.Rewrite.InjectClientPatch)
	body := rewrite.NewBodyRewriter(rules, injector)
	backend := proxy.New(target, cfg.PrefixHeader)
	mw := ingress.NewMiddleware(backend, body, cfg.PrefixHeader, recorder)

	// The ingress proxy may speak cleartext HTTP/2 to addons.
	handler := h2c.NewHandler(mw, &http2.Server{})

	return &Server{
		cfg:   cfg,
		rules: rules,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Rules exposes the compiled rule set for the admin API.
func (s *Server) Rules() *rewrite.RuleSet {
	return s.rules
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("ingress listen failed: %w", err)
	}

	slog.Info("ingress server started",
		slog.String("addr", s.cfg.ListenAddr),
		slog.String("upstream", s.cfg.Upstream))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("ingress server error", slog.Any("error", err))
		}
	}()
	return nil
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("ingress server shutting down")
	return s.httpServer.Shutdown(ctx)
}
