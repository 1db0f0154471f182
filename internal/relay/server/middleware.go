package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tweet-relay/internal/relay"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "requestID"

	requestIDHeader = "X-Request-Id"
)

// requestIDMiddleware keeps a caller supplied request id when it is a valid
// uuid and generates one otherwise
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// requestLogger returns the service logger scoped to the request
func (s *Service) requestLogger(r *http.Request) *zap.Logger {
	return s.logger.With(zap.String("requestId", requestID(r.Context())))
}

func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.requestLogger(r).Debug(
			"request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status(ww)),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Service) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			panicRecoveries.Inc()
			s.requestLogger(r).Error(
				"panic recovered",
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("path", r.URL.Path),
				zap.Stack("stack"),
			)
			respondJSON(w, s.logger, http.StatusInternalServerError, relay.Failed(relay.ErrInternal))
		}()

		next.ServeHTTP(w, r)
	})
}
