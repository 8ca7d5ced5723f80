// Package server exposes the creator service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/auth"
	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// shutdownTimeout bounds how long in-flight requests get after ctx ends.
const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Tokens verifies bearer tokens. Nil rejects every Authorization header.
	Tokens *auth.TokenIssuer

	// Fallback is used for requests without a token. Nil leaves them anonymous.
	Fallback *model.Identity

	// Decryption serves encrypted media. Nil answers such requests with 403.
	Decryption creator.DecryptionContext

	// MaxUploadSize caps multipart request bodies on media uploads.
	MaxUploadSize int64

	Logger creator.Logger
}

// Server routes HTTP requests to a creator.Service.
type Server struct {
	echo *echo.Echo
	svc  *creator.Service
	opts Options
	log  creator.Logger
}

func New(svc *creator.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = creator.NewNopLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(opts.Logger)

	s := &Server{echo: e, svc: svc, opts: opts, log: opts.Logger}

	e.Use(requestID())
	e.Use(requestLogger(s.log))
	e.Use(recoverer(s.log))
	e.Use(s.identity())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health/live", s.handleLive)
	s.echo.GET("/health/ready", s.handleReady)

	api := s.echo.Group("/api")

	api.GET("/content", s.handleListContent)
	api.POST("/content", s.handleCreateContent)
	api.GET("/content/:id", s.handleGetContent)
	api.PUT("/content/:id", s.handleUpdateContent)
	api.DELETE("/content/:id", s.handleDeleteContent)
	api.POST("/content/:id/views", s.handleIncrementViews)
	api.POST("/content/:id/likes", s.handleIncrementLikes)
	api.POST("/content/:id/purchase", s.handlePurchase)
	api.GET("/content/:id/access", s.handleAccess)

	api.POST("/tips", s.handleTip)
	api.GET("/payments/:id", s.handleGetPayment)

	api.GET("/me", s.handleMe)
	api.GET("/me/balance", s.handleBalance)
	api.GET("/me/purchases", s.handleMyPurchases)

	creators := api.Group("/creators/:address")
	creators.GET("/earnings", s.handleEarnings)
	creators.GET("/earnings/today", s.handleTodayEarnings)
	creators.GET("/stats", s.handleStats)
	creators.GET("/tips", s.handleCreatorTips)
	creators.GET("/content", s.handleCreatorContent)

	api.POST("/media", s.handleUploadMedia)
	api.GET("/media/:hash", s.handleGetMedia)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// orEmpty keeps empty lists rendering as [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
