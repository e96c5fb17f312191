package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/mortgage-calculator/internal/cache"
	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
	"github.com/iwvelando/mortgage-calculator/internal/store"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultHistoryLimit = 50

// HistoryStore lists recorded rate table snapshots. Recording happens
// where snapshots are published, not in the handler.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]store.Version, error)
}

// Options wires the handler to its dependencies. Cache and History are
// optional.
type Options struct {
	Calculator *mortgage.Calculator
	Tables     *ratetables.Store
	Cache      cache.Cache
	History    HistoryStore
	Config     *Config
	Version    string
}

type handler struct {
	logger         *zap.Logger
	calc           *mortgage.Calculator
	tables         *ratetables.Store
	cache          cache.Cache
	history        HistoryStore
	maxRequestSize int64
	version        string
}

type errorResponse struct {
	Error      string                      `json:"error"`
	Fields     []*mortgage.ValidationError `json:"fields,omitempty"`
	LoanType   string                      `json:"loan_type,omitempty"`
	CreditBand string                      `json:"credit_band,omitempty"`
}

// NewHandler constructs the HTTP handler that serves the calculation and
// rate table API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
		_ = cfg.normalize()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}

	h := &handler{
		logger:         logger,
		calc:           opts.Calculator,
		tables:         opts.Tables,
		cache:          c,
		history:        opts.History,
		maxRequestSize: cfg.RequestSizeBytes(),
		version:        trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(h.rateLimit(newClientLimiter(cfg.RateLimit)))
		}
		r.Post("/calculate", h.handleCalculate)
		r.Post("/refinance", h.handleRefinance)
		r.Get("/tables", h.handleGetTables)
		r.Put("/tables", h.handlePutTables)
		r.Get("/tables/history", h.handleTableHistory)
		r.Get("/version", h.handleVersion)
	})

	return r
}

// NewHTTPServer returns an http.Server for handler using the configured
// address and timeouts.
func NewHTTPServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	h.price(w, r, "calculate", "server.handleCalculate", func(values map[string]interface{}) (interface{}, error) {
		in, err := mortgage.ParsePurchaseRequest(values)
		if err != nil {
			return nil, err
		}
		return h.calc.Calculate(in)
	})
}

func (h *handler) handleRefinance(w http.ResponseWriter, r *http.Request) {
	h.price(w, r, "refinance", "server.handleRefinance", func(values map[string]interface{}) (interface{}, error) {
		in, err := mortgage.ParseRefinanceRequest(values)
		if err != nil {
			return nil, err
		}
		return h.calc.Refinance(in)
	})
}

// price decodes a request, serves it from the cache when possible and
// otherwise computes and caches it. A result is only cached when the
// snapshot it was priced against is still current.
func (h *handler) price(w http.ResponseWriter, r *http.Request, kind, op string, compute func(map[string]interface{}) (interface{}, error)) {
	start := time.Now()
	values, err := h.decodeRequest(w, r)
	if err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	var key string
	snap, snapErr := h.tables.Current()
	if snapErr == nil {
		key, err = cache.Key(kind, snap.ID.String(), values)
		if err != nil {
			h.logger.Warn("unable to derive cache key",
				zap.String("op", op),
				zap.Error(err),
			)
			key = ""
		}
	}

	if key != "" {
		body, ok, err := h.cache.Get(r.Context(), key)
		switch {
		case err != nil:
			h.logger.Warn("cache lookup failed",
				zap.String("op", op),
				zap.Error(err),
			)
		case ok:
			w.Header().Set("X-Cache", "HIT")
			h.writeRaw(w, http.StatusOK, "application/json", body)
			return
		}
	}

	result, err := compute(values)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", err), op)
		return
	}

	if key != "" {
		if current, err := h.tables.Current(); err == nil && current.ID == snap.ID {
			if err := h.cache.Set(r.Context(), key, body); err != nil {
				h.logger.Warn("cache store failed",
					zap.String("op", op),
					zap.Error(err),
				)
			}
		}
	}

	h.logger.Debug("calculation complete",
		zap.String("op", op),
		zap.Duration("duration", time.Since(start)),
	)
	w.Header().Set("X-Cache", "MISS")
	h.writeRaw(w, http.StatusOK, "application/json", body)
}

// decodeRequest reads a flat request map from a JSON, YAML or form body.
func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return formValues(r), nil
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxRequestSize); err != nil {
			return nil, err
		}
		return formValues(r), nil
	case isYAML(mediaType):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return decodeYAMLToMap(data)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("request body is empty")
	}
	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]interface{})
	}
	return values, nil
}

func formValues(r *http.Request) map[string]interface{} {
	values := make(map[string]interface{}, len(r.PostForm))
	for key, v := range r.PostForm {
		if len(v) > 0 {
			values[key] = v[0]
		}
	}
	return values
}

func isYAML(mediaType string) bool {
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("request body is empty")
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondDecodeError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	var configErr *mortgage.ConfigurationError
	switch {
	case errors.Is(err, mortgage.ErrValidation):
		fields := mortgage.ValidationErrors(err)
		h.logger.Info("rejected invalid request",
			zap.String("op", op),
			zap.Int("fields", len(fields)),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
	case errors.As(err, &configErr):
		h.logger.Error("rate tables cannot serve request",
			zap.String("op", op),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:      configErr.Message,
			LoanType:   configErr.LoanType,
			CreditBand: configErr.CreditBand,
		})
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) handleGetTables(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tables.Current()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, err.Error(), "server.handleGetTables")
		return
	}

	w.Header().Set("X-Tables-Version", snap.Version)
	w.Header().Set("X-Tables-Snapshot", snap.ID.String())

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", ratetables.FormatJSON:
		h.writeJSON(w, http.StatusOK, snap.Tables)
	case ratetables.FormatYAML, "yml":
		body, err := yaml.Marshal(snap.Tables)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode tables: %v", err), "server.handleGetTables")
			return
		}
		h.writeRaw(w, http.StatusOK, "application/yaml", body)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q", r.URL.Query().Get("format")), "server.handleGetTables")
	}
}

func (h *handler) handlePutTables(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePutTables"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	tables, err := ratetables.LoadBytes(data, tablesFormat(r))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	snap, err := h.tables.Replace(tables, "api")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, snap)
}

func tablesFormat(r *http.Request) string {
	if format := r.URL.Query().Get("format"); format != "" {
		return format
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if isYAML(mediaType) {
		return ratetables.FormatYAML
	}
	return ratetables.FormatJSON
}

func (h *handler) handleTableHistory(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTableHistory"

	if h.history == nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "rate table history is not enabled", op)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), op)
			return
		}
		limit = n
	}

	versions, err := h.history.History(r.Context(), limit)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	payload := map[string]string{
		"version": h.version,
	}
	if snap, err := h.tables.Current(); err == nil {
		payload["tablesVersion"] = snap.Version
		payload["tablesSnapshot"] = snap.ID.String()
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tables.Current()
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"tablesVersion": snap.Version,
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	log := h.logger.Error
	if status < http.StatusInternalServerError {
		log = h.logger.Warn
	}
	log("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) writeRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", zap.Error(err))
	}
}
