// Package server exposes the analysis pipeline and the backtest engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/datasource"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/internal/version"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
)

// DefaultBars is how many trailing bars are loaded from the provider when a
// request names a symbol without a bar count.
const DefaultBars = 500

// SeriesRequest selects the series to work on: either inline bars or a symbol
// loaded from the server's provider. Config, when present, is a JSON or YAML
// object overlaid on the server defaults.
type SeriesRequest struct {
	Series    *types.Series   `json:"series,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	Timeframe types.Timeframe `json:"timeframe,omitempty"`
	Bars      int             `json:"bars,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	SeriesRequest
	// Equity sizes the signal; the configured account equity when zero.
	Equity float64 `json:"equity,omitempty"`
}

// BacktestRequest is the body of POST /v1/backtest and the first websocket
// message of /v1/backtest/stream.
type BacktestRequest struct {
	SeriesRequest
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  errors.ErrorCode `json:"code"`
}

// Server owns the routes, the default pipeline and the metrics registry.
type Server struct {
	cfg         config.Config
	pipeline    *analysis.Pipeline
	provider    datasource.Provider
	log         *logger.Logger
	metrics     *Metrics
	router      *mux.Router
	newBacktest func(log *logger.Logger) engine.Engine
}

// NewServer validates cfg and registers every route. provider may be nil, in
// which case requests must carry their bars inline.
func NewServer(cfg config.Config, provider datasource.Provider, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	pipeline, err := analysis.NewPipeline(cfg, log.Named("analysis"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		pipeline:    pipeline,
		provider:    provider,
		log:         log,
		metrics:     NewMetrics(),
		router:      mux.NewRouter(),
		newBacktest: engine_v1.NewBacktestEngineV1,
	}

	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.instrument)

	// full paths on the root router so a method mismatch answers 405, not 404
	s.router.HandleFunc("/v1/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/backtest", s.handleBacktest).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/backtest/stream", s.handleBacktestStream).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/config/schema", s.handleSchema).Methods(http.MethodGet)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("Server listening", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.log.Info("Shutting down server")

		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	schema, err := s.cfg.GenerateSchemaJSON()
	if err != nil {
		s.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schema))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)

		return
	}

	pipeline, err := s.pipelineFor(req.Config)
	if err != nil {
		s.writeError(w, err)

		return
	}

	series, err := s.resolveSeries(r.Context(), req.SeriesRequest)
	if err != nil {
		s.writeError(w, err)

		return
	}

	equity := req.Equity
	if equity <= 0 {
		equity = pipeline.Config().Signal.AccountEquity
	}

	start := time.Now()

	result, err := pipeline.AnalyzeWithEquity(series, equity)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.metrics.observeAnalysis(result, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)

		return
	}

	report, err := s.runBacktest(r.Context(), req, engine.LifecycleCallbacks{})
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, report)
}

// runBacktest resolves the request and runs one backtest with callbacks.
func (s *Server) runBacktest(ctx context.Context, req BacktestRequest, callbacks engine.LifecycleCallbacks) (*types.BacktestReport, error) {
	cfg, err := s.configFor(req.Config)
	if err != nil {
		return nil, err
	}

	series, err := s.resolveSeries(ctx, req.SeriesRequest)
	if err != nil {
		return nil, err
	}

	backtest := s.newBacktest(s.log.Named("backtest"))
	if err := backtest.Initialize(cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := backtest.Run(ctx, series, callbacks)
	s.metrics.observeBacktest(report, err, time.Since(start))

	return report, err
}

// configFor overlays raw on the server defaults.
func (s *Server) configFor(raw json.RawMessage) (config.Config, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return s.cfg, nil
	}

	return config.Overlay(s.cfg, raw)
}

func (s *Server) pipelineFor(raw json.RawMessage) (*analysis.Pipeline, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return s.pipeline, nil
	}

	cfg, err := config.Overlay(s.cfg, raw)
	if err != nil {
		return nil, err
	}

	return analysis.NewPipeline(cfg, s.log.Named("analysis"))
}

func (s *Server) resolveSeries(ctx context.Context, req SeriesRequest) (types.Series, error) {
	if req.Series != nil {
		return *req.Series, nil
	}

	if req.Symbol == "" {
		return types.Series{}, errors.New(errors.ErrCodeInvalidRequest, "either series or symbol is required")
	}

	if s.provider == nil {
		return types.Series{}, errors.New(errors.ErrCodeInvalidRequest, "no data provider is configured, send the series inline")
	}

	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = types.Timeframe1h
	}

	bars := req.Bars
	if bars <= 0 {
		bars = DefaultBars
	}

	return s.provider.GetSeries(ctx, req.Symbol, timeframe, datasource.LastBars(bars))
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid request body", err)
	}

	return nil
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	if errors.IsDataInsufficient(err) {
		return http.StatusUnprocessableEntity
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidParameter,
		errors.ErrCodeInvalidConfiguration,
		errors.ErrCodeInvalidSeries,
		errors.ErrCodeInvalidTimeframe,
		errors.ErrCodeInvalidRequest,
		errors.ErrCodeBacktestConfigError:
		return http.StatusBadRequest
	case errors.ErrCodeDataNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDataSourceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", zap.Error(err))
	} else {
		s.log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
