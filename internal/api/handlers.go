package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
	"github.com/FocuswithJustin/JuniperSearch/core/search"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
	"github.com/FocuswithJustin/JuniperSearch/internal/logging"
	"github.com/FocuswithJustin/JuniperSearch/internal/server"
	"github.com/FocuswithJustin/JuniperSearch/internal/validation"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status      string   `json:"status"`
	Version     string   `json:"version"`
	Uptime      string   `json:"uptime"`
	Books       int      `json:"books"`
	Chapters    int      `json:"chapters"`
	Verses      int      `json:"verses"`
	Fingerprint string   `json:"fingerprint"`
	Formats     []string `json:"formats"`
}

// BookInfo describes one canon book and its coverage in the corpus.
type BookInfo struct {
	books.Book
	Chapters int `json:"chapters"`
	Verses   int `json:"verses"`
}

type cacheKey struct {
	limit int
	query string
}

type cachedSearch struct {
	body   []byte
	intent search.Intent
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "Juniper Search API",
		"version": s.version,
		"endpoints": []string{
			"GET /search?query=",
			"GET /read?book=&chapter=&start=&end=",
			"GET /books",
			"GET /health",
			"GET /metrics",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	c := s.engine.Corpus()
	stats := c.Stats()
	status := "healthy"
	if c.IsEmpty() {
		status = "degraded"
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:      status,
		Version:     s.version,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Books:       stats.Books,
		Chapters:    stats.Chapters,
		Verses:      stats.Verses,
		Fingerprint: c.Fingerprint(),
		Formats:     formats.Names(),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	c := s.engine.Corpus()
	canon := books.All()
	out := make([]BookInfo, 0, len(canon))
	for _, b := range canon {
		info := BookInfo{Book: b}
		if cb, ok := c.Book(b.Code); ok {
			info.Chapters = len(cb.Chapters())
			info.Verses = cb.Len()
		}
		out = append(out, info)
	}
	respondList(w, out, len(out))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	params := r.URL.Query()
	if !params.Has("query") {
		respondError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter is required")
		return
	}
	query := server.SanitizeUserInput(params.Get("query"))
	if err := validation.ValidateQuery(query); err != nil {
		respondErr(w, err)
		return
	}
	limit, err := validation.ParseLimit(params.Get("limit"), s.cfg.Search.Limit, s.cfg.Search.MaxLimit)
	if err != nil {
		respondErr(w, err)
		return
	}

	etag := s.etag(limit, query)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	key := cacheKey{limit: limit, query: query}
	entry, ok := s.cache.Get(key)
	if ok {
		s.metrics.CacheHit()
	} else {
		s.metrics.CacheMiss()
		out := s.evaluate(r.Context(), query, limit)
		body, err := encodeJSON(result.Response{Items: out.Items})
		if err != nil {
			logging.ErrorContext(r.Context(), "encode search response", "error", err)
			respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to encode response")
			return
		}
		entry = cachedSearch{body: body, intent: out.Intent}
		s.cache.Set(key, entry)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Search-Intent", string(entry.intent))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(entry.body)
	}
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	params := r.URL.Query()
	book := strings.TrimSpace(params.Get("book"))
	if err := validation.ValidateBook(book); err != nil {
		respondErr(w, err)
		return
	}
	chapter, err := validation.ParsePositive("chapter", params.Get("chapter"), validation.MaxChapter)
	if err != nil {
		respondErr(w, err)
		return
	}
	start, err := validation.ParsePositive("start", params.Get("start"), validation.MaxVerse)
	if err != nil {
		respondErr(w, err)
		return
	}
	end, err := validation.ParseOptionalPositive("end", params.Get("end"), validation.MaxVerse)
	if err != nil {
		respondErr(w, err)
		return
	}

	passage, err := s.engine.ReadRange(book, chapter, start, end)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, passage)
}

// evaluate runs one query and records it.
func (s *Server) evaluate(ctx context.Context, query string, limit int) search.Outcome {
	start := time.Now()
	out := s.engine.EvaluateWithLimit(query, limit)
	took := time.Since(start)

	s.metrics.ObserveQuery(string(out.Intent), took)
	logging.QueryEvaluated(ctx, query, string(out.Intent), len(out.Items), took)
	return out
}

// etag derives a strong validator from the corpus fingerprint and the
// request. Evaluation is deterministic, so equal tags mean equal bodies.
func (s *Server) etag(limit int, query string) string {
	fp := s.engine.Corpus().Fingerprint()
	if len(fp) > 16 {
		fp = fp[:16]
	}
	sum := blake3.Sum256([]byte(strconv.Itoa(limit) + "\x00" + query))
	return `"` + fp + "-" + hex.EncodeToString(sum[:8]) + `"`
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
	return false
}

// encodeJSON marshals v without HTML escaping, so Korean text and
// punctuation reach clients verbatim.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := encodeJSON(v)
	if err != nil {
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func meta(total int) *APIMeta {
	return &APIMeta{
		Total:     total,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{Success: true, Data: data, Meta: meta(0)})
}

func respondList(w http.ResponseWriter, data interface{}, total int) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta(total)})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    meta(0),
	})
}

// respondErr maps typed errors onto HTTP statuses.
func respondErr(w http.ResponseWriter, err error) {
	switch code := errors.Code(err); code {
	case "NOT_FOUND":
		respondError(w, http.StatusNotFound, code, err.Error())
	case "INVALID_INPUT":
		respondError(w, http.StatusBadRequest, code, err.Error())
	default:
		logging.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
