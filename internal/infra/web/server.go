package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/usecase"
)

type Server struct {
	refunds usecase.RefundOrchestrator
	guard   *AccessGuard
	log     *zerolog.Logger
}

func NewServer(refunds usecase.RefundOrchestrator, guard *AccessGuard, logger *zerolog.Logger) *Server {
	return &Server{refunds: refunds, guard: guard, log: logger}
}

// Router builds the HTTP surface. Everything under /api/v1 sits behind the
// access guard; health and metrics do not.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.traceID, s.requestLog, s.recover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/orders/{orderID}/refunds", func(r chi.Router) {
		r.Use(s.guard.Require)
		r.Post("/", s.submitRefundHandler())
		r.Get("/", s.listRefundsHandler())
	})
	return r
}

func (s *Server) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logging.With(r.Context(), s.log)
		start := time.Now()
		ww := &respWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

func (s *Server) recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.With(r.Context(), s.log).Error().Interface("panic", rec).Msg("handler panic")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
