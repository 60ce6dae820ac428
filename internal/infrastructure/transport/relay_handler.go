package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"astra/app/usecase"
	"astra/internal/domain/entity"
	"astra/internal/infrastructure/metrics"
)

const (
	runningMessage  = "Astra backend running"
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

type ctxKey int

const requestIDKey ctxKey = iota

type RelayHandler struct {
	relay    usecase.RelayUsecase
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func NewRelayHandler(
	relay usecase.RelayUsecase,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *RelayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayHandler{
		relay:    relay,
		logger:   logger.With("component", "http"),
		metrics:  m,
		gatherer: gatherer,
	}
}

func (h *RelayHandler) RegisterRoutes(r *mux.Router) {
	r.Use(h.withRequestID)

	r.HandleFunc("/", h.withMetrics(h.handleRoot)).Methods(http.MethodGet)
	r.HandleFunc("/generate-problem", h.withMetrics(h.handleGenerateProblem)).Methods(http.MethodPost)
	r.HandleFunc("/generate-product", h.withMetrics(h.handleGenerateProduct)).Methods(http.MethodPost)
	r.HandleFunc("/generate-strategy", h.withMetrics(h.handleGenerateStrategy)).Methods(http.MethodPost)
	r.HandleFunc("/generate-full-product", h.withMetrics(h.handleGenerateFullProduct)).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/v1/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	if h.gatherer != nil {
		r.Handle("/metrics", metrics.Handler(h.gatherer)).Methods(http.MethodGet)
	}
}

// withRequestID tags every request with an id, reusing the caller's when present.
func (h *RelayHandler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (h *RelayHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		h.metrics.ObserveHTTPRequest(r.Method, path, strconv.Itoa(rw.status), time.Since(start), rw.status >= 400)
		h.logger.Debug("request served",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{OK: false, Error: err.Error()})
}

type successResponse struct {
	OK     bool            `json:"ok"`
	Result string          `json:"result"`
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type problemReq struct {
	Niche string `json:"niche"`
}

type productReq struct {
	Niche      string `json:"niche"`
	Experience string `json:"experience"`
}

type strategyReq struct {
	Niche   string `json:"niche"`
	Product string `json:"product"`
}

type fullProductReq struct {
	Idea string `json:"idea"`
}

type generateReq struct {
	Mode   string            `json:"mode"`
	Inputs map[string]string `json:"inputs"`
}

// decodeBody reads a JSON object into v. An empty body leaves v untouched so
// every field falls back to its default.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("bad request body: %w", err)
	}
	return nil
}

// GET /
func (h *RelayHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": runningMessage})
}

// GET /api/v1/health
func (h *RelayHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}

// POST /generate-problem
func (h *RelayHandler) handleGenerateProblem(w http.ResponseWriter, r *http.Request) {
	var req problemReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.generate(w, r, entity.NewGenerationRequest(entity.ModeProblemGeneration, map[string]string{
		entity.FieldNiche: req.Niche,
	}))
}

// POST /generate-product
func (h *RelayHandler) handleGenerateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.generate(w, r, entity.NewGenerationRequest(entity.ModeProductBuild, map[string]string{
		entity.FieldNiche:      req.Niche,
		entity.FieldExperience: req.Experience,
	}))
}

// POST /generate-strategy
func (h *RelayHandler) handleGenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.generate(w, r, entity.NewGenerationRequest(entity.ModeMonetizationTips, map[string]string{
		entity.FieldNiche:   req.Niche,
		entity.FieldProduct: req.Product,
	}))
}

// POST /generate-full-product
func (h *RelayHandler) handleGenerateFullProduct(w http.ResponseWriter, r *http.Request) {
	var req fullProductReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.generate(w, r, entity.NewGenerationRequest(entity.ModeFullProduct, map[string]string{
		entity.FieldIdea: req.Idea,
	}))
}

// POST /api/generate
func (h *RelayHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, _ := entity.ParseMode(req.Mode)
	h.generate(w, r, entity.NewGenerationRequest(mode, req.Inputs))
}

// generate runs the relay and writes the envelope. Provider failures are
// reported in-band with ok=false and a 200 status. The provider call is
// detached from client cancellation: a disconnect does not abort it.
func (h *RelayHandler) generate(w http.ResponseWriter, r *http.Request, req entity.GenerationRequest) {
	ctx := context.WithoutCancel(r.Context())

	res, err := h.relay.Generate(ctx, req)
	if err != nil {
		h.logger.Warn("generate failed",
			"request_id", requestID(r.Context()),
			"mode", req.Mode,
			"err", err,
		)
		res = entity.FailedResult(err)
	}

	if !res.OK {
		writeJSON(w, http.StatusOK, errorResponse{OK: false, Error: res.Text})
		return
	}
	writeJSON(w, http.StatusOK, successResponse{OK: true, Result: res.Text, Parsed: res.Parsed})
}
