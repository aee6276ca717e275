// Package fakeapi is an in-process replica of the valuation API. The suites run
// against it when no live environment is selected.
//
// The replica reproduces the live service's quirks rather than idealised
// behaviour: login with unknown credentials is 401, document requests without
// an Authorization header are 500, and an invalid valuation payload is 408.
package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/logger"
)

// ServiceName is the server name reported on otelecho spans.
const ServiceName = "apitest-fakeapi"

// Server is a running fake API.
type Server struct {
	// URL is the base URL, e.g. http://127.0.0.1:41235
	URL string
	// Token is a valid Authorization value issued at start
	Token string

	echo     *echo.Echo
	listener *httptest.Server
	log      logger.Logger
	tp       oteltrace.TracerProvider
	requests atomic.Int64

	mu         sync.Mutex
	tokens     map[string]struct{}
	accounts   map[string]string
	valuations []valuation
	nextID     int
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs one record per handled request.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithTracerProvider sets the provider used for server spans.
// The global provider is used otherwise.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(s *Server) {
		s.tp = tp
	}
}

// WithAccount registers credentials that log in successfully.
func WithAccount(username, password string) Option {
	return func(s *Server) {
		s.accounts[username] = password
	}
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%s failed %q validation", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return err
	}
	return nil
}

// New builds a Server without listening. Use Handler to serve it.
func New(opts ...Option) *Server {
	s := &Server{
		log:      logger.Nop(),
		tokens:   make(map[string]struct{}),
		accounts: make(map[string]string),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.valuations, s.nextID = seedValuations()
	s.Token = s.IssueToken()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}

	var otelOpts []otelecho.Option
	if s.tp != nil {
		otelOpts = append(otelOpts, otelecho.WithTracerProvider(s.tp))
	}
	e.Use(otelecho.Middleware(ServiceName, otelOpts...))
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	e.POST(endpoints.PathLogin, s.login)
	e.GET(endpoints.PathValuation, s.listValuations, s.requireToken(http.StatusUnauthorized))
	e.POST(endpoints.PathValuation, s.createValuation, s.requireToken(http.StatusUnauthorized))
	e.GET(endpoints.PathDocumentsBySection, s.documentsBySection, s.requireToken(http.StatusInternalServerError))
	e.GET(endpoints.PathFactor, s.listFactors, s.requireToken(http.StatusUnauthorized))
	e.GET(endpoints.PathDealerRadiusFactor, s.dealerRadiusFactor, s.requireToken(http.StatusUnauthorized))

	s.echo = e
	return s
}

// Start builds a Server and serves it on a loopback listener.
func Start(opts ...Option) *Server {
	s := New(opts...)
	s.listener = httptest.NewServer(s.echo)
	s.URL = s.listener.URL
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Close stops the listener started by Start.
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// Requests returns the number of requests handled so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// IssueToken registers and returns a new valid token.
func (s *Server) IssueToken() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token
}

// RevokeToken makes token invalid, as an expired token would be.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *Server) validToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

// requireToken accepts "Token <value>" and bare "<value>" Authorization
// headers. A missing header answers missingStatus.
func (s *Server) requireToken(missingStatus int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" {
				if missingStatus == http.StatusInternalServerError {
					return c.JSON(missingStatus, map[string]any{"detail": "Internal Server Error"})
				}
				return c.JSON(missingStatus, map[string]any{"detail": "Authentication credentials were not provided."})
			}
			if !s.validToken(strings.TrimPrefix(header, "Token ")) {
				return c.JSON(http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})
			}
			return next(c)
		}
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			s.requests.Add(1)

			s.log.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Dur("latency", time.Since(start)).
				Msg("fake api request")
			return nil
		}
	}
}
