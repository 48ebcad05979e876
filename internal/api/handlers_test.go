package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/result"
	"github.com/FocuswithJustin/JuniperSearch/core/search"
	"github.com/FocuswithJustin/JuniperSearch/internal/config"
)

func testCorpus(t testing.TB) *corpus.Corpus {
	t.Helper()
	b := corpus.NewBuilder()
	for _, v := range []struct{ key, text string }{
		{"창1:1", "태초에 하나님이 천지를 창조하시니라"},
		{"창1:2", "땅이 혼돈하고 공허하며"},
		{"창1:3", "빛이 있으라 & 빛이 있었고"},
		{"출3:7", "내 백성의 고통을 보고 사랑으로 듣고"},
		{"요3:16", "하나님이 세상을 이처럼 사랑하사"},
		{"요일4:8", "하나님은 사랑이심이라"},
	} {
		require.NoError(t, b.AddComposite(v.key, v.text))
	}
	return b.Build()
}

func newTestServer(t testing.TB, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return New(cfg, search.New(testCorpus(t)), WithVersion("test"))
}

func get(t testing.TB, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func searchURL(query string, extra ...string) string {
	v := url.Values{"query": {query}}
	for i := 0; i+1 < len(extra); i += 2 {
		v.Set(extra[i], extra[i+1])
	}
	return "/search?" + v.Encode()
}

func decodeItems(t testing.TB, rec *httptest.ResponseRecorder) []result.Item {
	t.Helper()
	var resp result.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Items
}

func decodeEnvelope(t testing.TB, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSearchIntents(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name       string
		query      string
		wantIntent search.Intent
		wantItems  int
		wantTitle  string
		wantValid  bool
	}{
		{"address", "창 1:1", search.IntentAddress, 2, "창세기 1:1", true},
		{"whole chapter", "창 1", search.IntentAddress, 4, "창세기 1장 (3절)", true},
		{"scoped exact book", "요:사랑", search.IntentScoped, 1, "요한복음 3:16 : 하나님이 세상을 이처럼 사랑하사", true},
		{"global", "사랑", search.IntentGlobal, 3, "출애굽기 3:7 : 내 백성의 고통을 보고 사랑으로 듣고", true},
		{"no matches", "없는말", search.IntentNone, 1, "검색 결과 없음", false},
		{"empty", "", search.IntentNone, 1, "검색어를 입력하세요", false},
		{"unknown passage", "창 99:1", search.IntentNone, 1, "구절을 찾을 수 없음", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, searchURL(tt.query))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, string(tt.wantIntent), rec.Header().Get("X-Search-Intent"))

			items := decodeItems(t, rec)
			require.Len(t, items, tt.wantItems)
			assert.Equal(t, tt.wantTitle, items[0].Title)
			assert.Equal(t, tt.wantValid, items[0].Valid)
		})
	}
}

func TestSearchMissingQuery(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), "/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_QUERY", resp.Error.Code)
}

func TestSearchRejectsLongQuery(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), searchURL(strings.Repeat("사", 300)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, rec).Error.Code)
}

func TestSearchLimit(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	assert.Len(t, decodeItems(t, get(t, h, searchURL("사랑", "limit", "1"))), 1)
	assert.Len(t, decodeItems(t, get(t, h, searchURL("사랑", "limit", "9999"))), 3)

	rec := get(t, h, searchURL("사랑", "limit", "0"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchETag(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	first := get(t, h, searchURL("창 1:1"))
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `"`+s.engine.Corpus().Fingerprint()[:16]+"-"))

	notModified := get(t, h, searchURL("창 1:1"), "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Empty(t, notModified.Body.Bytes())

	weak := get(t, h, searchURL("창 1:1"), "If-None-Match", `"other", W/`+etag)
	assert.Equal(t, http.StatusNotModified, weak.Code)

	other := get(t, h, searchURL("창 1:2"))
	assert.NotEqual(t, etag, other.Header().Get("ETag"))

	limited := get(t, h, searchURL("창 1:1", "limit", "5"))
	assert.NotEqual(t, etag, limited.Header().Get("ETag"))
}

func TestSearchCache(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	a := get(t, h, searchURL("사랑"))
	b := get(t, h, searchURL("사랑"))
	assert.Equal(t, a.Body.String(), b.Body.String())
	assert.Equal(t, 1, s.cache.Len())

	get(t, h, searchURL("사랑", "limit", "2"))
	assert.Equal(t, 2, s.cache.Len())
}

func TestSearchCacheDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Search.CacheTTL = 0 })
	get(t, s.Handler(), searchURL("사랑"))
	assert.Equal(t, 0, s.cache.Len())
}

func TestSearchKeepsPunctuation(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), searchURL("창 1:3"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "빛이 있으라 & 빛이 있었고")
	assert.NotContains(t, rec.Body.String(), `\u0026`)
}

func TestSearchMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, searchURL("사랑"), nil)
	rec := httptest.NewRecorder()
	newTestServer(t, nil).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
}

func TestRead(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), "/read?"+url.Values{
		"book": {"창세기"}, "chapter": {"1"}, "start": {"2"}, "end": {"3"},
	}.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    search.Passage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "창", resp.Data.Book)
	assert.Equal(t, "창세기", resp.Data.Name)
	assert.Equal(t, 1, resp.Data.Chapter)
	assert.Equal(t, []result.Line{
		{Verse: 2, Text: "땅이 혼돈하고 공허하며"},
		{Verse: 3, Text: "빛이 있으라 & 빛이 있었고"},
	}, resp.Data.Verses)
}

func TestReadErrors(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name       string
		params     url.Values
		wantStatus int
		wantCode   string
	}{
		{"missing book", url.Values{"chapter": {"1"}, "start": {"1"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"zero chapter", url.Values{"book": {"창"}, "chapter": {"0"}, "start": {"1"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing start", url.Values{"book": {"창"}, "chapter": {"1"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad end", url.Values{"book": {"창"}, "chapter": {"1"}, "start": {"1"}, "end": {"x"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"end before start", url.Values{"book": {"창"}, "chapter": {"1"}, "start": {"3"}, "end": {"1"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown book", url.Values{"book": {"마"}, "chapter": {"1"}, "start": {"1"}}, http.StatusNotFound, "NOT_FOUND"},
		{"missing chapter", url.Values{"book": {"창"}, "chapter": {"2"}, "start": {"1"}}, http.StatusNotFound, "NOT_FOUND"},
		{"empty range", url.Values{"book": {"창"}, "chapter": {"1"}, "start": {"10"}, "end": {"12"}}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/read?"+tt.params.Encode())
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBooks(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), "/books")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []BookInfo `json:"data"`
		Meta APIMeta    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 66)
	assert.Equal(t, 66, resp.Meta.Total)

	gen := resp.Data[0]
	assert.Equal(t, "창", gen.Code)
	assert.Equal(t, "창세기", gen.Name)
	assert.Equal(t, 1, gen.Chapters)
	assert.Equal(t, 3, gen.Verses)

	assert.Equal(t, 0, resp.Data[2].Verses, "레위기 is not in the test corpus")
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data HealthInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.Equal(t, "test", resp.Data.Version)
	assert.Equal(t, 6, resp.Data.Verses)
	assert.Equal(t, 4, resp.Data.Books)
	assert.Len(t, resp.Data.Fingerprint, 64)
}

func TestHealthDegradedOnEmptyCorpus(t *testing.T) {
	s := New(config.DefaultConfig(), nil)
	rec := get(t, s.Handler(), "/health")

	var resp struct {
		Data HealthInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Data.Status)
	assert.Equal(t, 0, resp.Data.Verses)
}

func TestRootAndUnknownPath(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	root := get(t, h, "/")
	require.Equal(t, http.StatusOK, root.Code)
	assert.True(t, decodeEnvelope(t, root).Success)

	missing := get(t, h, "/capsules")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	get(t, h, searchURL("창 1:1"))
	get(t, h, searchURL("창 1:1"))

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `juniper_search_queries_total{intent="address"} 1`)
	assert.Contains(t, body, `juniper_search_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, "juniper_search_corpus_verses 6")
}

func TestMiddlewareChain(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), searchURL("사랑"), "Origin", "https://example.com")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRateLimitedServer(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimitRequests = 60
		c.Server.RateLimitBurst = 2
	}).Handler()

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	}
	rec := get(t, h, "/health")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeEnvelope(t, rec).Error.Code)
}
