package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxneeraj/phishwatch/pkg/classifier"
	"github.com/nxneeraj/phishwatch/pkg/features"
	"github.com/nxneeraj/phishwatch/pkg/types"
)

func newTestRouter(t *testing.T) (http.Handler, *CheckLog) {
	t.Helper()
	model, err := classifier.Parse([]byte("name: test\nbias: -3\nweights:\n  qty_dot_domain: 1\n"))
	require.NoError(t, err)
	checks := NewCheckLog(10)
	h := NewAPIHandler(checks, features.NewExtractor(nil, time.Second, false), model)
	return NewRouter(h), checks
}

func postCheck(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/check_url", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckURL_Verdicts(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"few dots", "http://example.com/", types.ResultLegitimate},
		{"many dots", "http://a.b.c.example.com/", types.ResultPhishing},
		{"empty url", "", types.ResultError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(types.CheckRequest{URL: tt.url})
			rec := postCheck(t, router, string(body))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Check-ID"))

			var resp types.CheckResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Result)
		})
	}
}

func TestCheckURL_BadRequests(t *testing.T) {
	router, _ := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, postCheck(t, router, "not json").Code)
	assert.Equal(t, http.StatusBadRequest, postCheck(t, router, `{"link":"x"}`).Code)
}

func TestCheckURL_RejectsGet(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check_url", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckStatus(t *testing.T) {
	router, _ := newTestRouter(t)
	id := postCheck(t, router, `{"url":"http://a.b.c.example.com/"}`).Header().Get("X-Check-ID")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checks/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.CheckRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.CheckID)
	assert.Equal(t, types.ResultPhishing, got.Result)
	assert.Equal(t, 4.0, got.Features["qty_dot_domain"])
	assert.InDelta(t, 1.0, got.Score, 1e-9)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checks/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFinish_LogsEvictedCheck(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	checks := NewCheckLog(1)
	h := NewAPIHandler(checks, features.NewExtractor(nil, time.Second, false), classifier.Default())
	evicted := checks.Begin("http://a.example")
	checks.Begin("http://b.example")

	h.finish(evicted, types.ResultLegitimate, -1, nil, nil)
	assert.Contains(t, logs.String(), "[API] ["+evicted+"]")
	assert.Contains(t, logs.String(), ErrCheckNotFound.Error())
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/check_url", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model":"test"`)
}

func TestCheckLog_EvictsOldest(t *testing.T) {
	l := NewCheckLog(2)
	first := l.Begin("a")
	second := l.Begin("b")
	third := l.Begin("c")

	assert.Equal(t, 2, l.Len())
	_, err := l.Get(first)
	assert.ErrorIs(t, err, ErrCheckNotFound)
	_, err = l.Get(second)
	assert.NoError(t, err)
	assert.ErrorIs(t, l.Finish(first, "phishing", 0, nil, nil), ErrCheckNotFound)
	require.NoError(t, l.Finish(third, "legitimate", -1, map[string]float64{"x": 1}, nil))

	rec, err := l.Get(third)
	require.NoError(t, err)
	rec.Features["x"] = 99
	again, _ := l.Get(third)
	assert.Equal(t, 1.0, again.Features["x"])
	assert.False(t, again.EndTime.IsZero())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	router, _ := newTestRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, router) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/check_url", "application/json", strings.NewReader(`{"url":"http://example.com/"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
