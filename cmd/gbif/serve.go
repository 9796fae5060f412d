package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/enum"
	"github.com/Sternrassler/gbif-client/pkg/gbif"
	"github.com/Sternrassler/gbif-client/pkg/metrics"
	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/Sternrassler/gbif-client/pkg/ratelimit"
	"github.com/Sternrassler/gbif-client/pkg/record"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// requestTimeout bounds one proxied search, including all of its pages.
const requestTimeout = 2 * time.Minute

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve searches, health and metrics over HTTP",
		Long: `Serve searches, health and metrics over HTTP.

Endpoints:
	GET /health                 liveness
	GET /ready                  readiness (pings Redis when configured)
	GET /metrics                Prometheus metrics
	GET /species/search         species search, filters as query parameters
	GET /species                species list
	GET /species/match          name match
	GET /species/{key}          name usage by key
	GET /occurrence/search      occurrence search
	GET /occurrence/count       occurrence count
	GET /occurrence/{key}       occurrence by key
	GET /download/{key}         download job status
	GET /enum/{param}           accepted values of an enum parameter`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, newServer(a.svc, a.rdb))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0:8080", "Listen address")
	return cmd
}

func serve(ctx context.Context, addr string, s *server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting GBIF server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down GBIF server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.WithStack(srv.Shutdown(shutdownCtx))
}

type server struct {
	svc    *gbif.Service
	rdb    *redis.Client
	logger zerolog.Logger
}

func newServer(svc *gbif.Service, rdb *redis.Client) *server {
	return &server{
		svc:    svc,
		rdb:    rdb,
		logger: log.With().Str("component", "server").Logger(),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(s.rdb))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /species/search", s.tableHandler(query.SpeciesSearch, s.svc.SpeciesSearch))
	mux.HandleFunc("GET /species", s.tableHandler(query.SpeciesList, s.svc.SpeciesList))
	mux.HandleFunc("GET /species/match", s.matchHandler)
	mux.HandleFunc("GET /species/{key}", s.keyHandler(s.svc.Species))
	mux.HandleFunc("GET /species/{key}/{resultType}", s.resourceHandler)
	mux.HandleFunc("GET /occurrence/search", s.tableHandler(query.OccurrenceSearch, s.svc.OccurrenceSearch))
	mux.HandleFunc("GET /occurrence/count", s.countHandler)
	mux.HandleFunc("GET /occurrence/counts/{kind}", s.inventoryHandler)
	mux.HandleFunc("GET /occurrence/{key}", s.keyHandler(s.svc.Occurrence))
	mux.HandleFunc("GET /download/{key}", s.downloadHandler)
	mux.HandleFunc("GET /enum/{param}", s.enumHandler)
	return s.logRequests(mux)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readyHandler reports 503 while a configured Redis is unreachable.
func readyHandler(rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				http.Error(w, "Redis unavailable: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

type (
	tableSearch func(ctx context.Context, filters map[string]any) (*record.Table, error)
	keyLookup   func(ctx context.Context, key int64) (*record.Row, error)
)

func (s *server) tableHandler(e *query.Endpoint, run tableSearch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := query.FromStrings(e, r.URL.Query())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		tbl, err := run(ctx, filters)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, tableJSON{Count: tbl.Count, Rows: tbl.Rows()})
	}
}

func (s *server) matchHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := query.FromStrings(query.SpeciesMatch, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	row, err := s.svc.SpeciesMatch(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, row)
}

func (s *server) countHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := query.FromStrings(query.OccurrenceSearch, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.OccurrenceCount(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *server) keyHandler(run keyLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := strconv.ParseInt(r.PathValue("key"), 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("key %q is not a number", r.PathValue("key"))})
			return
		}
		row, err := run(r.Context(), key)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, row)
	}
}

func (s *server) resourceHandler(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.ParseInt(r.PathValue("key"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("key %q is not a number", r.PathValue("key"))})
		return
	}
	limit := query.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			s.writeError(w, r, &query.InvalidParameterTypeError{Param: "limit", Want: "non-negative int", Got: raw})
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := s.svc.SpeciesResource(ctx, key, r.PathValue("resultType"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch {
	case res.Table() != nil:
		tbl := res.Table()
		s.writeJSON(w, http.StatusOK, tableJSON{Count: tbl.Count, Rows: tbl.Rows()})
	case res.IsList():
		s.writeJSON(w, http.StatusOK, map[string]any{"count": res.Count, "results": res.Records})
	default:
		s.writeJSON(w, http.StatusOK, res.Object)
	}
}

func (s *server) inventoryHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.OccurrenceInventory(r.Context(), r.PathValue("kind"), r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, raw)
}

func (s *server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.Downloads().Poll(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *server) enumHandler(w http.ResponseWriter, r *http.Request) {
	values, err := s.svc.Accepted(r.PathValue("param"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, values)
}

// statusFor maps an error to the HTTP status returned to callers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrUnknownParameter),
		errors.Is(err, query.ErrInvalidParameterType),
		errors.Is(err, enum.ErrInvalidEnumValue):
		return http.StatusBadRequest
	case errors.Is(err, enum.ErrUnknownVocabulary),
		errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ratelimit.ErrCoolingDown):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var te *client.TransportError
	if errors.As(err, &te) && te.Class == client.ErrorClassRateLimit {
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := writeJSON(w, v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
