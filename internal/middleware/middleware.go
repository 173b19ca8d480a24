package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"socialFeed/internal/authctx"
	handlers "socialFeed/internal/handler"
	"socialFeed/internal/service"
)

type Middleware func(http.Handler) http.Handler

// AuthMiddleware resolves the bearer token through the gate and puts the
// identity into the request context. A missing credential is 401, a
// credential that does not verify is 403.
func AuthMiddleware(gate service.AuthGate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				handlers.WriteError(w, service.ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}

			// Checking the "Bearer <token>" format
			scheme, tokenString, _ := strings.Cut(authHeader, " ")
			if !strings.EqualFold(scheme, "Bearer") {
				handlers.WriteError(w, "Неверный формат токена", http.StatusForbidden)
				return
			}

			identity, err := gate.ResolveIdentity(tokenString)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					handlers.WriteError(w, service.ErrUnauthenticated.Error(), http.StatusUnauthorized)
					return
				}
				handlers.WriteError(w, service.ErrInvalidCredential.Error(), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(authctx.WithIdentity(r.Context(), identity)))
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("запрос",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// RecoverMiddleware turns a handler panic into a 500.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("паника в обработчике", "path", r.URL.Path, "panic", rec)
					handlers.WriteError(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h so that the first middleware listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
