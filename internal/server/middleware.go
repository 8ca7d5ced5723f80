package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

const contextKeyIdentity = "identity"

// requestID reuses an incoming X-Request-ID or assigns a new uuid.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(apperrors.RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			c.Set(apperrors.ContextKeyRequestID, id)
			c.Response().Header().Set(apperrors.RequestIDHeader, id)
			return next(c)
		}
	}
}

func requestLogger(log creator.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Render now so the logged status is the one the client sees.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", apperrors.RequestIDFromContext(c),
			}
			switch {
			case status >= 500:
				log.Error("request failed", args...)
			case status >= 400:
				log.Warn("request rejected", args...)
			default:
				log.Info("request completed", args...)
			}
			return nil
		}
	}
}

// recoverer turns a handler panic into a 500 response.
func recoverer(log creator.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered",
						"panic", r,
						"method", c.Request().Method,
						"path", c.Request().URL.Path,
						"request_id", apperrors.RequestIDFromContext(c),
					)
					err = apperrors.NewInternal(apperrors.ErrCodeUnexpectedError, "An unexpected error occurred", fmt.Errorf("panic: %v", r))
				}
			}()
			return next(c)
		}
	}
}

// identity resolves the viewer: a bearer token when present, otherwise the
// configured fallback identity, otherwise anonymous.
func (s *Server) identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			switch {
			case header != "":
				token, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || strings.TrimSpace(token) == "" {
					return apperrors.NewUnauthorized(apperrors.ErrCodeTokenMalformed, "Authorization header must be a bearer token")
				}
				if s.opts.Tokens == nil {
					return apperrors.NewUnauthorized(apperrors.ErrCodeTokenInvalid, "Bearer tokens are not enabled")
				}
				id, err := s.opts.Tokens.Parse(strings.TrimSpace(token))
				if err != nil {
					return err
				}
				c.Set(contextKeyIdentity, id)
			case s.opts.Fallback != nil:
				c.Set(contextKeyIdentity, *s.opts.Fallback)
			}
			return next(c)
		}
	}
}

// viewer returns the resolved identity, anonymous if none.
func viewer(c echo.Context) model.Identity {
	id, _ := c.Get(contextKeyIdentity).(model.Identity)
	return id
}

// authenticated returns the viewer or ErrUnauthenticated.
func authenticated(c echo.Context) (model.Identity, error) {
	id := viewer(c)
	if id.IsAnonymous() {
		return model.Identity{}, creator.ErrUnauthenticated
	}
	return id, nil
}
