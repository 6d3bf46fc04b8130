// Package server assembles the echo HTTP server fronting the admin API and
// the inbound mail webhook.
package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mailgatehq/mailgate/internal/auth"
)

// Handler registers a group of routes on the server.
type Handler interface {
	Register(e *echo.Echo)
}

var (
	jwtExactSkipPaths = map[string]struct{}{
		"/ping":       {},
		"/health":     {},
		"/auth/login": {},
	}
	// Webhook posts carry an HMAC signature instead of a bearer token.
	jwtPrefixSkipPaths = []string{
		"/email/mailgun/webhook",
	}
)

type Server struct {
	echo *echo.Echo
	addr string
}

func New(log *slog.Logger, addr string, jwtSecret string, handlers []Handler) *Server {
	if log == nil {
		log = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))
	e.Use(auth.JWTMiddleware(jwtSecret, func(c echo.Context) bool {
		return shouldSkipJWT(c.Request().URL.Path)
	}))

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo: e,
		addr: addr,
	}
}

func shouldSkipJWT(path string) bool {
	if _, ok := jwtExactSkipPaths[path]; ok {
		return true
	}
	return hasAnyPrefix(path, jwtPrefixSkipPaths)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
