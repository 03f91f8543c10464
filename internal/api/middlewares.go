package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5/request"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/logger"
	"github.com/samandr77/crm/pkg/metrics"
)

var skipLogging = map[string]struct{}{
	"/api/health": {},
	"/metrics":    {},
}

// request bodies carrying secrets are not logged
var skipBodyLogging = map[string]struct{}{
	"/api/auth/login": {},
	"/api/users":      {},
}

type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

type UserProvider interface {
	User(ctx context.Context, id uuid.UUID) (entity.User, error)
}

type Middleware struct {
	tokens TokenParser
	users  UserProvider
	cors   func(http.Handler) http.Handler
}

func NewMiddleware(tokens TokenParser, users UserProvider, allowedOrigins []string) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "Origin", "Accept", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	}
}

func (m *Middleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV4()).String()
		}

		ctx = logger.SetRequestID(ctx, requestID)
		w.Header().Set("X-Request-Id", requestID)

		if _, ok := skipLogging[r.URL.Path]; !ok {
			var body []byte

			_, secret := skipBodyLogging[r.URL.Path]
			upload := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")

			if !secret && !upload && r.Body != nil {
				var err error

				body, err = io.ReadAll(r.Body)
				if err != nil {
					SendJSONErr(ctx, w, http.StatusInternalServerError, err, "read request body")
					return
				}

				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewBuffer(body))
			}

			var headers strings.Builder

			for k, v := range r.Header {
				if k == "Authorization" || k == "Cookie" {
					continue
				}

				headers.WriteString(fmt.Sprintf("%s: %s,\n", k, v))
			}

			slog.InfoContext(ctx, "incoming request",
				"request", fmt.Sprintf("%s %s\n%s", r.Method, r.URL.Redacted(), body),
				"headers", headers.String(),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			err := recover()
			if err != nil {
				slog.ErrorContext(ctx, "recovered from panic", "error", err, "stack", string(debug.Stack()))
				SendJSONErr(ctx, w, http.StatusInternalServerError, nil, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) Cors(next http.Handler) http.Handler {
	return m.cors(next)
}

// Metrics records request count and latency per chi route pattern.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// BearerAuth resolves the session token into the caller every handler acts for.
func (m *Middleware) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := request.BearerExtractor{}.ExtractToken(r)
		if err != nil {
			SendJSONErr(ctx, w, http.StatusUnauthorized, err, "Token is missing or malformed")
			return
		}

		userID, err := m.tokens.Parse(token)
		if err != nil {
			SendJSONErr(ctx, w, http.StatusUnauthorized, err, "Invalid token")
			return
		}

		user, err := m.users.User(ctx, userID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				SendJSONErr(ctx, w, http.StatusUnauthorized, err, "User no longer exists")
			} else {
				SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Authentication failed")
			}

			return
		}

		ctx = entity.SetCallerToContext(ctx, entity.CallerFromUser(user))
		ctx = logger.SetUserID(ctx, user.ID.String())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects callers without the admin role.
func (m *Middleware) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := callerFromRequest(r)
		if err != nil {
			SendErr(ctx, w, err, "Authentication failed")
			return
		}

		if !caller.IsAdmin() {
			SendErr(ctx, w, entity.ErrAdminOnly, "Not enough permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}
