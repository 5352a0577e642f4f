// Package server exposes the Draftwire HTTP surface: the realtime
// handshake, the stateless classify/mockup routes, the ticket pipeline
// routes, and the Linear OAuth flow.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftwire/draftwire/internal/auth"
	"github.com/draftwire/draftwire/internal/export"
	"github.com/draftwire/draftwire/internal/llm"
	"github.com/draftwire/draftwire/internal/notify"
	"github.com/draftwire/draftwire/internal/pipeline"
	"github.com/draftwire/draftwire/internal/session"
	"github.com/draftwire/draftwire/internal/ticket"
)

// Classifier abstracts the intent-classification call. Satisfied by
// *llm.Client.
type Classifier interface {
	ClassifyIntent(ctx context.Context, transcript string) (*llm.Classification, error)
}

// Generator abstracts the mockup-generation call. Satisfied by *llm.Client.
type Generator interface {
	GenerateMockups(ctx context.Context, req llm.MockupRequest) ([]llm.Variant, error)
}

// SignedURLProvider abstracts the realtime handshake. Satisfied by
// *realtime.Client.
type SignedURLProvider interface {
	SignedURL(ctx context.Context) (string, error)
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Port   int
	Origin string // public origin for post-OAuth redirects
	Out    io.Writer

	Store    *session.Store
	Flow     *auth.Flow
	Classify Classifier
	Generate Generator
	Realtime SignedURLProvider
	Machine  *ticket.Machine
	Pipeline *pipeline.Pipeline
	Gateway  *export.Gateway
	Notifier *notify.Notifier
}

// server bundles the handler dependencies.
type server struct {
	opts StartOpts
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	router, err := newRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8090
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Draftwire running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newRouter validates opts and builds the gin router.
func newRouter(opts StartOpts) (*gin.Engine, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("server: session store is required")
	case opts.Flow == nil:
		return nil, fmt.Errorf("server: oauth flow is required")
	case opts.Classify == nil || opts.Generate == nil:
		return nil, fmt.Errorf("server: llm client is required")
	case opts.Realtime == nil:
		return nil, fmt.Errorf("server: realtime client is required")
	case opts.Machine == nil || opts.Pipeline == nil || opts.Gateway == nil:
		return nil, fmt.Errorf("server: pipeline components are required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewNotifier()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{opts: opts}
	s.registerRoutes(router)
	return router, nil
}
