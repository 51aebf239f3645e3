// CLAUDE:SUMMARY HTTP routes (search, batch, fields, records ingest, health, metrics) over the shared kit endpoints.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/engine"
	"github.com/hazyhaar/kanaseek/pkg/kit"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns an http.Handler with all kanaseek API routes.
func NewRouter(eps *Endpoints, coll *collection.Collection) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps, coll: coll}

	mux.HandleFunc("GET /v1/search/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/search/batch", h.handleBatch)
	mux.HandleFunc("GET /v1/search", h.handleSearch)
	mux.HandleFunc("GET /v1/fields", h.handleFields)
	mux.HandleFunc("POST /v1/records", h.handleIngest)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return cors(requestID(mux))
}

type handler struct {
	eps  *Endpoints
	coll *collection.Collection
}

// --- search ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, limit, err := h.parseModeLimit(q.Get("mode"), q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.eps.Search(r.Context(), &searchReq{Query: q.Get("q"), Mode: mode, Limit: limit})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- batch ---

type httpBatchRequest struct {
	Queries []string `json:"queries"`
	Mode    string   `json:"mode,omitempty"`
	Limit   *int     `json:"limit,omitempty"`
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	limit := ""
	if req.Limit != nil {
		limit = strconv.Itoa(*req.Limit)
	}
	mode, n, err := h.parseModeLimit(req.Mode, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.eps.Batch(r.Context(), &batchReq{Queries: req.Queries, Mode: mode, Limit: n})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- fields ---

func (h *handler) handleFields(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Fields(r.Context(), nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ingest ---

type httpIngestRequest struct {
	Columns   []string          `json:"columns"`
	Rows      [][]string        `json:"rows"`
	Tokenizer tokenize.Strategy `json:"tokenizer"`
}

func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<20) // 16 MiB max
	var req httpIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.eps.Ingest(r.Context(), &ingestReq{
		Columns:   req.Columns,
		Rows:      req.Rows,
		Tokenizer: req.Tokenizer,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status string `json:"status"`
	collection.Stats
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.coll.Stats()
	status := "ok"
	if !st.Ready {
		status = "loading"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Stats: st})
}

// --- helpers ---

func (h *handler) parseModeLimit(modeStr, limitStr string) (query.Mode, int, error) {
	mode := h.eps.Defaults.Mode
	if modeStr != "" {
		m, err := query.ParseMode(modeStr)
		if err != nil {
			return 0, 0, err
		}
		mode = m
	}
	limit := h.eps.Defaults.Limit
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			return 0, 0, errors.New("limit must be a non-negative integer")
		}
		limit = n
	}
	return mode, limit, nil
}

// statusFor maps endpoint errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, collection.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest),
		errors.Is(err, engine.ErrQuery),
		errors.Is(err, record.ErrMalformedInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID tags each request with the caller's X-Request-ID or a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = kit.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
